package entity

import (
	"time"
)

// Dispatch status
const (
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// DispatchLog records one notification attempt of a watcher run
type DispatchLog struct {
	RunID          string    `bson:"runId"`
	GroupKey       string    `bson:"groupKey"`
	AirlineCodes   []string  `bson:"airlineCodes"`
	Category       Category  `bson:"category"`
	Title          string    `bson:"title"`
	Body           string    `bson:"body"`
	Filters        string    `bson:"filters"`
	ChangeCount    int       `bson:"changeCount"`
	Status         string    `bson:"status"`
	NotificationID string    `bson:"notificationId,omitempty"`
	Recipients     int       `bson:"recipients"`
	ErrorDetail    string    `bson:"errorDetail,omitempty"`
	StartedAt      time.Time `bson:"startedAt"`
	FinishedAt     time.Time `bson:"finishedAt"`
}

// RunReport summarizes one watcher cycle
type RunReport struct {
	RunID           string
	FirstRun        bool
	FlightsSeen     int
	ChangesDetected int
	GroupsNotified  int
	GroupsFailed    int
	StartedAt       time.Time
	FinishedAt      time.Time
}
