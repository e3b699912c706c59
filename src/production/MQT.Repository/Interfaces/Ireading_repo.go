package interfaces

import (
	"context"

	mqtmodels "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Models"
)

// ReadingRepository is append only: readings are never updated or deleted
type ReadingRepository interface {
	ListReadings(ctx context.Context, q ListQuery) ([]mqtmodels.Reading, error)
	GetReading(ctx context.Context, id string) (*mqtmodels.Reading, error)
	CreateReading(ctx context.Context, reading mqtmodels.Reading) (*mqtmodels.Reading, error)
}
