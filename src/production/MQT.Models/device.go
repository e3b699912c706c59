package mqtmodels

// DeviceState is the operational state the operator toggles from the control view
type DeviceState string

const (
	StateActive   DeviceState = "activo"
	StateInactive DeviceState = "inactivo"
)

// Valid reports whether s is one of the two known states
func (s DeviceState) Valid() bool {
	return s == StateActive || s == StateInactive
}

// Device is an aquarium pH controller registered in the store
type Device struct {
	ID        string      `json:"id" bson:"_id" db:"id"`
	Name      string      `json:"nombre" bson:"nombre" db:"nombre"`
	Type      string      `json:"tipo" bson:"tipo" db:"tipo"`
	Location  string      `json:"ubicacion" bson:"ubicacion" db:"ubicacion"`
	IP        string      `json:"ip,omitempty" bson:"ip,omitempty" db:"ip"`
	State     DeviceState `json:"estado" bson:"estado" db:"estado"`
	CurrentPH *float64    `json:"ph_actual" bson:"ph_actual" db:"ph_actual"`
	TargetPH  *float64    `json:"ph_objetivo" bson:"ph_objetivo" db:"ph_objetivo"`
	Automatic bool        `json:"automatico" bson:"automatico" db:"automatico"`
}

// IsActive reports whether the device is switched on
func (d Device) IsActive() bool {
	return d.State == StateActive
}

// Float returns a pointer to v, for building nullable pH fields
func Float(v float64) *float64 {
	return &v
}
