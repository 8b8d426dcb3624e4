// internal/domain/entity/flight_record.go
package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// FlightType is the board a flight was listed on
type FlightType string

const (
	FlightDeparture FlightType = "departure"
	FlightArrival   FlightType = "arrival"
)

// Board query values used by the airport site and by snapshots written with them
const (
	legacyDeparture = "dprtr"
	legacyArrival   = "arivl"
)

var (
	// ErrSnapshotNotFound is returned by a snapshot store that has nothing saved yet
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrInvalidSnapshot is returned when a snapshot payload is not a JSON object
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// ParseFlightType maps both the enum values and the board query values onto FlightType.
// Anything else yields an empty type.
func ParseFlightType(s string) FlightType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(FlightDeparture), legacyDeparture:
		return FlightDeparture
	case string(FlightArrival), legacyArrival:
		return FlightArrival
	default:
		return ""
	}
}

// UnmarshalText accepts the legacy board values as well as the enum values
func (t *FlightType) UnmarshalText(text []byte) error {
	*t = ParseFlightType(string(text))
	return nil
}

// FlightRecord is one scheduled flight occurrence seen on the board
type FlightRecord struct {
	ID           string     `json:"id,omitempty" bson:"id"`
	FlightNumber string     `json:"flightNumber" bson:"flightNumber"`
	AirlineCode  string     `json:"airlineCode,omitempty" bson:"airlineCode"`
	Status       string     `json:"status" bson:"status"`
	ActualTime   string     `json:"actualTime" bson:"actualTime"`
	Type         FlightType `json:"type" bson:"type"`
}

// FlightID builds the stable identity of a flight occurrence
func FlightID(flightNumber, date string) string {
	return fmt.Sprintf("%s-%s", flightNumber, date)
}

// Snapshot maps flight id to record
type Snapshot map[string]FlightRecord

// IDs returns the snapshot ids in ascending order
func (s Snapshot) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Records returns the records ordered by id, with ID filled from the map key
func (s Snapshot) Records() []FlightRecord {
	records := make([]FlightRecord, 0, len(s))
	for _, id := range s.IDs() {
		record := s[id]
		record.ID = id
		records = append(records, record)
	}
	return records
}

// SnapshotFromRecords indexes records by ID. Records without an ID are skipped.
func SnapshotFromRecords(records []FlightRecord) Snapshot {
	snapshot := make(Snapshot, len(records))
	for _, record := range records {
		if record.ID == "" {
			continue
		}
		snapshot[record.ID] = record
	}
	return snapshot
}

// DecodeSnapshot parses a JSON object keyed by flight id.
// Only a payload that is not an object is rejected; individual records degrade to empty
// fields when they are malformed.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if raw == nil {
		// "null"
		return nil, fmt.Errorf("%w: payload is not an object", ErrInvalidSnapshot)
	}

	snapshot := make(Snapshot, len(raw))
	for id, value := range raw {
		record := decodeRecord(value)
		record.ID = id
		snapshot[id] = record
	}
	return snapshot, nil
}

// EncodeSnapshot renders the snapshot as 2-space indented JSON
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	if s == nil {
		s = Snapshot{}
	}
	return json.MarshalIndent(s, "", "  ")
}

func decodeRecord(data json.RawMessage) FlightRecord {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return FlightRecord{}
	}

	return FlightRecord{
		FlightNumber: stringField(fields, "flightNumber"),
		AirlineCode:  stringField(fields, "airlineCode"),
		Status:       stringField(fields, "status"),
		ActualTime:   stringField(fields, "actualTime"),
		Type:         ParseFlightType(stringField(fields, "type")),
	}
}

func stringField(fields map[string]json.RawMessage, key string) string {
	value, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return ""
	}
	return s
}
