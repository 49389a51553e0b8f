//go:build unit || !integration

package planning

import (
	"testing"
	"time"

	"github.com/airfreight/cargoplan/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fingerprintInputs() Inputs {
	return Inputs{
		Flights: []models.Flight{{ID: "F1", Origin: "DEL", Destination: "BOM",
			Departure:        time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
			Arrival:          time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			WeightCapacityKg: 1000, VolumeCapacityM3: 10, CostPerKg: 5}},
	}
}

func TestFingerprint_StableAndSensitive(t *testing.T) {
	in := fingerprintInputs()

	a, err := Fingerprint(in, 42)
	require.NoError(t, err)
	b, err := Fingerprint(in, 42)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	differentSeed, err := Fingerprint(in, 43)
	require.NoError(t, err)
	assert.NotEqual(t, a, differentSeed)

	in.Flights[0].WeightCapacityKg = 2000
	differentInput, err := Fingerprint(in, 42)
	require.NoError(t, err)
	assert.NotEqual(t, a, differentInput)
}
