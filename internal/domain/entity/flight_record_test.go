package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSnapshot(t *testing.T) {
	data := []byte(`{
		"ME201-Monday 12 Feb": {
			"flightNumber": "ME201",
			"status": "On Time",
			"actualTime": "10:05",
			"type": "dprtr",
			"airlineCode": "ME"
		},
		"TK827-Monday 12 Feb": {
			"flightNumber": "TK827",
			"status": 42,
			"type": "arrival"
		},
		"broken": "not a record"
	}`)

	snapshot, err := DecodeSnapshot(data)
	require.NoError(t, err)
	require.Len(t, snapshot, 3)

	me := snapshot["ME201-Monday 12 Feb"]
	assert.Equal(t, "ME201-Monday 12 Feb", me.ID)
	assert.Equal(t, "ME201", me.FlightNumber)
	assert.Equal(t, "ME", me.AirlineCode)
	assert.Equal(t, "On Time", me.Status)
	assert.Equal(t, FlightDeparture, me.Type)

	tk := snapshot["TK827-Monday 12 Feb"]
	assert.Empty(t, tk.Status, "non-string fields degrade to empty")
	assert.Empty(t, tk.AirlineCode)
	assert.Equal(t, FlightArrival, tk.Type)

	broken := snapshot["broken"]
	assert.Equal(t, "broken", broken.ID)
	assert.Empty(t, broken.Status)
}

func TestDecodeSnapshot_NotAnObject(t *testing.T) {
	inputs := []string{`[]`, `"flights"`, `null`, `42`, `{`}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := DecodeSnapshot([]byte(input))
			assert.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}
}

func TestEncodeSnapshot_RoundTrip(t *testing.T) {
	snapshot := Snapshot{
		"RJ401-d": {ID: "RJ401-d", FlightNumber: "RJ401", AirlineCode: "RJ", Status: "Landed", Type: FlightArrival},
	}

	data, err := EncodeSnapshot(snapshot)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"RJ401-d\": {")

	decoded, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, snapshot, decoded)
}

func TestEncodeSnapshot_Nil(t *testing.T) {
	data, err := EncodeSnapshot(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestFlightType_UnmarshalJSON(t *testing.T) {
	var record FlightRecord
	require.NoError(t, json.Unmarshal([]byte(`{"type":"arivl"}`), &record))
	assert.Equal(t, FlightArrival, record.Type)

	assert.Equal(t, FlightDeparture, ParseFlightType(" DEPARTURE "))
	assert.Equal(t, FlightType(""), ParseFlightType("cargo"))
}

func TestSnapshot_RecordsAndIDs(t *testing.T) {
	snapshot := Snapshot{
		"b": {FlightNumber: "B"},
		"a": {FlightNumber: "A"},
	}

	assert.Equal(t, []string{"a", "b"}, snapshot.IDs())

	records := snapshot.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID)

	rebuilt := SnapshotFromRecords(append(records, FlightRecord{FlightNumber: "no id"}))
	assert.Len(t, rebuilt, 2)
	assert.Equal(t, "B", rebuilt["b"].FlightNumber)
}

func TestFlightID(t *testing.T) {
	assert.Equal(t, "ME201-Monday 12 Feb", FlightID("ME201", "Monday 12 Feb"))
}
