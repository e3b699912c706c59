package interfaces

import (
	"context"

	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
)

// CommandRepository stores one command log per equipment kind
type CommandRepository interface {
	ListCommands(ctx context.Context, kind mqtmodels.EquipmentKind, q ListQuery) ([]mqtmodels.Command, error)
	CreateCommand(ctx context.Context, kind mqtmodels.EquipmentKind, cmd mqtmodels.Command) (*mqtmodels.Command, error)
}
