package mqtmodels

import "strings"

// EquipmentKind is an auxiliary piece of aquarium equipment driven by operator commands
type EquipmentKind string

const (
	KindOxygenator EquipmentKind = "oxigenador"
	KindSkimmer    EquipmentKind = "skimmer"
	KindDoser      EquipmentKind = "dosificador"
)

// Command actions
const (
	ActionOn     = "ENCENDER"
	ActionOff    = "APAGAR"
	ActionAdjust = "AJUSTAR"
	ActionClean  = "LIMPIAR"
	ActionDose   = "DOSIFICAR"
)

// Command delivery states
const (
	CommandSent    = "ENVIADO"
	CommandSuccess = "EXITOSO"
	CommandError   = "ERROR"
)

// Equipment power states tracked by the console
const (
	PowerOn  = "ENCENDIDO"
	PowerOff = "APAGADO"
)

var kindActions = map[EquipmentKind][]string{
	KindOxygenator: {ActionOn, ActionOff, ActionAdjust},
	KindSkimmer:    {ActionOn, ActionOff, ActionClean},
	KindDoser:      {ActionOn, ActionOff, ActionDose},
}

// Command is one operator instruction sent to a piece of equipment
type Command struct {
	ID     string `json:"id" bson:"_id" db:"id"`
	Device string `json:"dispositivo" bson:"dispositivo" db:"dispositivo"`
	Action string `json:"accion" bson:"accion" db:"accion"`
	Date   string `json:"fecha" bson:"fecha" db:"fecha"`
	Status string `json:"estado" bson:"estado" db:"estado"`
	User   string `json:"usuario" bson:"usuario" db:"usuario"`
}

// EquipmentKinds lists the known kinds in display order
func EquipmentKinds() []EquipmentKind {
	return []EquipmentKind{KindOxygenator, KindSkimmer, KindDoser}
}

// ParseEquipmentKind accepts a kind in any case
func ParseEquipmentKind(s string) (EquipmentKind, bool) {
	k := EquipmentKind(strings.ToLower(strings.TrimSpace(s)))
	_, ok := kindActions[k]
	return k, ok
}

// Actions returns the actions the kind accepts
func (k EquipmentKind) Actions() []string {
	return append([]string(nil), kindActions[k]...)
}

// Accepts reports whether action is valid for the kind
func (k EquipmentKind) Accepts(action string) bool {
	for _, a := range kindActions[k] {
		if a == action {
			return true
		}
	}
	return false
}

// Label is the upper-case name stored in Command.Device
func (k EquipmentKind) Label() string {
	return strings.ToUpper(string(k))
}
