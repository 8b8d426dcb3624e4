package entity

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// UnknownAirlineName is shown for changes whose carrier could not be determined
const UnknownAirlineName = "Unknown airline"

// Airline represents an airline entity
type Airline struct {
	ID        uint           `csv:"-"`
	Code      string         `csv:"code"`
	Name      string         `csv:"name"`
	CreatedAt time.Time      `csv:"-"`
	UpdatedAt time.Time      `csv:"-"`
	DeletedAt gorm.DeletedAt `csv:"-"`
}

// AirlineDirectory is an immutable code -> name table. Its codes are the subscription
// tags the app offers.
type AirlineDirectory struct {
	names map[string]string
	codes []string
}

// NewAirlineDirectory builds a directory from airlines, keeping first-seen order and
// ignoring blank or repeated codes
func NewAirlineDirectory(airlines []*Airline) *AirlineDirectory {
	d := &AirlineDirectory{names: make(map[string]string, len(airlines))}
	for _, airline := range airlines {
		if airline == nil {
			continue
		}
		code := NormalizeAirlineCode(airline.Code)
		if code == "" {
			continue
		}
		if _, exists := d.names[code]; exists {
			continue
		}
		name := strings.TrimSpace(airline.Name)
		if name == "" {
			name = code
		}
		d.names[code] = name
		d.codes = append(d.codes, code)
	}
	return d
}

// AirlineDirectoryFromCodes builds a directory where every name is its code
func AirlineDirectoryFromCodes(codes []string) *AirlineDirectory {
	airlines := make([]*Airline, 0, len(codes))
	for _, code := range codes {
		airlines = append(airlines, &Airline{Code: code})
	}
	return NewAirlineDirectory(airlines)
}

// Name returns the display name for a code, falling back to the code itself
func (d *AirlineDirectory) Name(code string) string {
	code = NormalizeAirlineCode(code)
	if code == "" {
		return UnknownAirlineName
	}
	if name, ok := d.names[code]; ok {
		return name
	}
	return code
}

// Codes returns a copy of the known codes in directory order
func (d *AirlineDirectory) Codes() []string {
	out := make([]string, len(d.codes))
	copy(out, d.codes)
	return out
}

// Len is the number of known airlines
func (d *AirlineDirectory) Len() int {
	return len(d.codes)
}

// NormalizeAirlineCode upper-cases and trims a carrier code
func NormalizeAirlineCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
