//go:build unit || !integration

package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/airfreight/cargoplan/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const flightsCSV = `flight_id,origin,destination,departure,arrival,weight_capacity_kg,volume_capacity_m3,cost_per_kg
AI101,DEL,BOM,2026-03-01T08:00:00+05:30,2026-03-01T10:05:00+05:30,12000,60,11.5
AI201,BOM,MAA,2026-03-01 12:15:00,2026-03-01 14:05:00,8000,40,9.0
`

func TestLoadFlights(t *testing.T) {
	flights, err := LoadFlights(writeFile(t, "flights.csv", flightsCSV))
	require.NoError(t, err)
	require.Len(t, flights, 2)

	assert.Equal(t, "AI101", flights[0].ID)
	assert.Equal(t, 12000.0, flights[0].WeightCapacityKg)

	// Naive timestamps are interpreted as Asia/Calcutta (UTC+05:30).
	_, offset := flights[1].Departure.Zone()
	assert.Equal(t, 5*3600+30*60, offset)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 15, 0, 0, flights[1].Departure.Location()).Unix(), flights[1].Departure.Unix())
}

func TestLoadFlights_ColumnOrderIndependent(t *testing.T) {
	shuffled := `origin,flight_id,cost_per_kg,destination,departure,arrival,weight_capacity_kg,volume_capacity_m3
DEL,AI101,11.5,BOM,2026-03-01T08:00:00+05:30,2026-03-01T10:05:00+05:30,12000,60
`
	flights, err := LoadFlights(writeFile(t, "flights.csv", shuffled))
	require.NoError(t, err)
	require.Len(t, flights, 1)
	assert.Equal(t, "AI101", flights[0].ID)
	assert.Equal(t, "DEL", flights[0].Origin)
}

func TestLoadFlights_MissingColumn(t *testing.T) {
	broken := `flight_id,origin,destination,departure,arrival,weight_capacity_kg
AI101,DEL,BOM,2026-03-01T08:00:00+05:30,2026-03-01T10:05:00+05:30,12000
`
	_, err := LoadFlights(writeFile(t, "flights.csv", broken))
	var vErr *models.DataValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, err.Error(), "volume_capacity_m3")
}

func TestLoadFlights_BadTimestamp(t *testing.T) {
	broken := strings.Replace(flightsCSV, "2026-03-01T08:00:00+05:30", "yesterday", 1)
	_, err := LoadFlights(writeFile(t, "flights.csv", broken))
	var vErr *models.DataValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestLoadFlights_DuplicateID(t *testing.T) {
	dup := flightsCSV + "AI101,DEL,MAA,2026-03-01T09:00:00+05:30,2026-03-01T11:00:00+05:30,9000,45,8.0\n"
	_, err := LoadFlights(writeFile(t, "flights.csv", dup))
	var vErr *models.DataValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestLoadFlights_NonPositiveCapacity(t *testing.T) {
	broken := strings.Replace(flightsCSV, "12000,60", "0,60", 1)
	_, err := LoadFlights(writeFile(t, "flights.csv", broken))
	var vErr *models.DataValidationError
	require.ErrorAs(t, err, &vErr)
}

const cargoCSV = `cargo_id,origin,destination,weight_kg,volume_m3,revenue_inr,priority,perishable,max_transit_hours,ready_time,due_by,handling_cost_per_kg,sla_penalty_per_hour
CG001,DEL,BOM,2400,10,310000,HIGH,yes,12,2026-03-01T06:00:00+05:30,2026-03-01T12:00:00+05:30,2.0,4500
CG002,DEL,MAA,1800,9,190000,medium,0,16,2026-03-01T06:30:00+05:30,2026-03-01T18:00:00+05:30,1.5,2500
`

func TestLoadCargo(t *testing.T) {
	cargo, err := LoadCargo(writeFile(t, "cargo.csv", cargoCSV))
	require.NoError(t, err)
	require.Len(t, cargo, 2)

	assert.Equal(t, models.PriorityHigh, cargo[0].Priority, "priority is case-insensitive")
	assert.True(t, cargo[0].Perishable)
	assert.False(t, cargo[1].Perishable)
	assert.Equal(t, 2500.0, cargo[1].SLAPenaltyPerHour)
}

func TestLoadCargo_DueByBeforeReadyTime(t *testing.T) {
	broken := strings.Replace(cargoCSV, "2026-03-01T12:00:00+05:30", "2026-03-01T05:00:00+05:30", 1)
	_, err := LoadCargo(writeFile(t, "cargo.csv", broken))
	var vErr *models.DataValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, err.Error(), "due_by")
}

func TestLoadCargo_OriginEqualsDestination(t *testing.T) {
	broken := strings.Replace(cargoCSV, "CG001,DEL,BOM", "CG001,DEL,DEL", 1)
	_, err := LoadCargo(writeFile(t, "cargo.csv", broken))
	var vErr *models.DataValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestLoadCargo_UnknownPriority(t *testing.T) {
	broken := strings.Replace(cargoCSV, "HIGH", "urgent", 1)
	_, err := LoadCargo(writeFile(t, "cargo.csv", broken))
	var vErr *models.DataValidationError
	require.ErrorAs(t, err, &vErr)
}

const connectionsCSV = `origin,destination,connection_airport,min_connection_minutes,max_connection_minutes,handling_fee
DEL,MAA,BOM,75,360,1800
DEL,MAA,,90,480,2000
`

func TestLoadConnections(t *testing.T) {
	rules, err := LoadConnections(writeFile(t, "connections.csv", connectionsCSV))
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, "BOM", rules[0].ConnectionAirport)
	assert.Empty(t, rules[1].ConnectionAirport, "empty connection_airport is the wildcard")
	assert.Equal(t, 2000.0, rules[1].HandlingFee)
}

func TestLoadConnections_InvalidWindow(t *testing.T) {
	broken := strings.Replace(connectionsCSV, "75,360", "360,75", 1)
	_, err := LoadConnections(writeFile(t, "connections.csv", broken))
	var vErr *models.DataValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestLoadDisruptionEvents(t *testing.T) {
	events, err := LoadDisruptionEvents(writeFile(t, "events.json", `[
		{"event_type": "delay", "flight_id": "AI101", "delay_minutes": 120},
		{"event_type": "cancel", "flight_id": "AI201"},
		{"event_type": "swap", "flight_id": "AI301", "new_weight_capacity_kg": 9000}
	]`))
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, models.EventDelay, events[0].Kind)
	assert.Equal(t, 120.0, events[0].DelayMinutes)
	assert.Equal(t, models.EventCancel, events[1].Kind)
	require.NotNil(t, events[2].NewWeightCapacityKg)
	assert.Equal(t, 9000.0, *events[2].NewWeightCapacityKg)
	assert.Nil(t, events[2].NewVolumeCapacityM3)
}

func TestParseDisruptionEvents_UnknownKind(t *testing.T) {
	_, err := ParseDisruptionEvents([]byte(`[{"event_type": "strike", "flight_id": "AI101"}]`))
	var vErr *models.DataValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestParseDisruptionEvents_SwapWithoutCapacities(t *testing.T) {
	_, err := ParseDisruptionEvents([]byte(`[{"event_type": "swap", "flight_id": "AI101"}]`))
	var vErr *models.DataValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestParseDisruptionEvents_MalformedJSON(t *testing.T) {
	_, err := ParseDisruptionEvents([]byte(`{not json`))
	var vErr *models.DataValidationError
	require.ErrorAs(t, err, &vErr)
}
