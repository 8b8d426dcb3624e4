package entity

// Notification is one push message and its audience
type Notification struct {
	GroupKey    string           `json:"groupKey"`
	Filters     FilterExpression `json:"filters"`
	Title       string           `json:"title"`
	Body        string           `json:"body"`
	Category    Category         `json:"category"`
	Sound       string           `json:"sound,omitempty"`
	ChangeCount int              `json:"changeCount"`
}

// DispatchResult is what the notification service reported for a send
type DispatchResult struct {
	NotificationID string
	Recipients     int
}
