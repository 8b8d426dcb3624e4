package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"flightwatch-service/internal/domain/entity"
	"flightwatch-service/internal/domain/repository"
	"flightwatch-service/pkg/logger"
)

const defaultOneSignalURL = "https://onesignal.com"

// OneSignalRepository handles sending push notifications to OneSignal
type OneSignalRepository struct {
	logger     logger.Logger
	baseURL    string
	appID      string
	restAPIKey string
	client     *http.Client
}

// NewOneSignalRepository creates a new OneSignal repository
func NewOneSignalRepository(baseURL, appID, restAPIKey string, timeout time.Duration, logger logger.Logger) repository.NotificationRepository {
	if baseURL == "" {
		baseURL = defaultOneSignalURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OneSignalRepository{
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
		appID:      appID,
		restAPIKey: restAPIKey,
		client:     &http.Client{Timeout: timeout},
	}
}

type localizedText struct {
	En string `json:"en"`
}

type createNotificationRequest struct {
	AppID    string                  `json:"app_id"`
	Filters  entity.FilterExpression `json:"filters"`
	Headings localizedText           `json:"headings"`
	Contents localizedText           `json:"contents"`
	IOSSound string                  `json:"ios_sound,omitempty"`
}

type createNotificationResponse struct {
	ID         string          `json:"id"`
	Recipients int             `json:"recipients"`
	Errors     json.RawMessage `json:"errors"`
}

// Send creates a notification for the audience described by the notification filters
func (r *OneSignalRepository) Send(ctx context.Context, notification *entity.Notification) (*entity.DispatchResult, error) {
	if len(notification.Filters) == 0 {
		return nil, fmt.Errorf("invalid notification: empty audience filter")
	}

	msg := createNotificationRequest{
		AppID:    r.appID,
		Filters:  notification.Filters,
		Headings: localizedText{En: notification.Title},
		Contents: localizedText{En: notification.Body},
		IOSSound: notification.Sound,
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}

	r.logger.Debug("Sending notification to OneSignal",
		"group", notification.GroupKey,
		"payload", string(jsonData))

	url := fmt.Sprintf("%s/api/v1/notifications", r.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Basic "+r.restAPIKey)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var errorBody map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errorBody)
		return nil, fmt.Errorf("OneSignal returned status %d: %v", resp.StatusCode, errorBody)
	}

	var response createNotificationResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if response.ID == "" {
		return nil, fmt.Errorf("OneSignal did not create the notification: %s", describeErrors(response.Errors))
	}

	return &entity.DispatchResult{
		NotificationID: response.ID,
		Recipients:     response.Recipients,
	}, nil
}

// describeErrors flattens the errors field, which is either a list of strings or an object
func describeErrors(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "no notification id in response"
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	return string(raw)
}
