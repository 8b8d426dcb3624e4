package entity

import "fmt"

// Category drives the presentation (title, sound) of a notification
type Category string

const (
	CategoryDeparture Category = "departure"
	CategoryArrival   Category = "arrival"
)

// Change is a status transition of one flight occurrence between two snapshots
type Change struct {
	FlightID     string     `json:"flightId"`
	FlightNumber string     `json:"flightNumber"`
	AirlineCode  string     `json:"airlineCode"`
	Type         FlightType `json:"type"`
	OldStatus    string     `json:"oldStatus"`
	NewStatus    string     `json:"newStatus"`
	ActualTime   string     `json:"actualTime,omitempty"`
	Message      string     `json:"message"`
}

// RenderChangeMessage formats the single-change notification body
func RenderChangeMessage(flightNumber, newStatus string) string {
	return fmt.Sprintf("%s status: %s", flightNumber, newStatus)
}
