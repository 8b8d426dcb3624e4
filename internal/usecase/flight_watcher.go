package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flightwatch-service/internal/domain/entity"
	"flightwatch-service/internal/domain/repository"
	"flightwatch-service/pkg/logger"
	"flightwatch-service/pkg/metrics"

	"github.com/google/uuid"
)

// FlightWatcher runs one detect-and-notify cycle over the flight board
type FlightWatcher struct {
	provider        repository.SnapshotProvider
	store           repository.SnapshotRepository
	notifier        repository.NotificationRepository
	dispatchLog     repository.DispatchLogRepository
	filterBuilder   *AudienceFilterBuilder
	presenter       Presenter
	groupKey        GroupKeyFunc
	dispatchTimeout time.Duration
	metrics         *metrics.Metrics
	logger          logger.Logger
}

// NewFlightWatcher creates a new flight watcher. dispatchLog may be nil.
func NewFlightWatcher(
	provider repository.SnapshotProvider,
	store repository.SnapshotRepository,
	notifier repository.NotificationRepository,
	dispatchLog repository.DispatchLogRepository,
	filterBuilder *AudienceFilterBuilder,
	presenter Presenter,
	groupKey GroupKeyFunc,
	dispatchTimeout time.Duration,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *FlightWatcher {
	if groupKey == nil {
		groupKey = GroupByAirline
	}
	return &FlightWatcher{
		provider:        provider,
		store:           store,
		notifier:        notifier,
		dispatchLog:     dispatchLog,
		filterBuilder:   filterBuilder,
		presenter:       presenter,
		groupKey:        groupKey,
		dispatchTimeout: dispatchTimeout,
		metrics:         metrics,
		logger:          logger,
	}
}

// Run loads the previous snapshot, fetches the current one, notifies every change group and
// stores the current snapshot for the next run.
//
// A failed dispatch only marks its group as failed. Load, fetch and save failures and
// cancellation abort the run; the stored snapshot is not replaced in that case.
func (w *FlightWatcher) Run(ctx context.Context) (*entity.RunReport, error) {
	report := &entity.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	log := w.logger.With("runId", report.RunID)
	defer func() {
		w.metrics.RunDuration.Observe(time.Since(report.StartedAt).Seconds())
	}()

	previous, err := w.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, entity.ErrSnapshotNotFound) {
			w.fail("load_snapshot")
			return report, fmt.Errorf("failed to load previous snapshot: %w", err)
		}
		log.Info("No previous snapshot found, treating as first run")
		report.FirstRun = true
		previous = nil
	}

	current, err := w.provider.Fetch(ctx)
	if err != nil {
		w.fail("fetch_snapshot")
		return report, fmt.Errorf("failed to fetch current snapshot: %w", err)
	}
	report.FlightsSeen = len(current)

	changes := DiffSnapshots(previous, current)
	report.ChangesDetected = len(changes)
	w.metrics.ChangesDetected.Add(float64(len(changes)))
	log.Info("Snapshot compared",
		"previousFlights", len(previous),
		"currentFlights", len(current),
		"changes", len(changes))

	for _, group := range AggregateChanges(changes, w.groupKey) {
		if err := w.dispatchGroup(ctx, log, report.RunID, group); err != nil {
			report.GroupsFailed++
			continue
		}
		report.GroupsNotified++
	}

	// undelivered changes must be detected again on the next run
	if err := ctx.Err(); err != nil {
		w.fail("cancelled")
		return report, fmt.Errorf("run cancelled before saving snapshot: %w", err)
	}

	if len(current) == 0 && len(previous) > 0 {
		log.Warn("Current snapshot is empty, keeping previous snapshot",
			"previousFlights", len(previous))
	} else if err := w.store.Save(ctx, current); err != nil {
		w.fail("save_snapshot")
		return report, fmt.Errorf("failed to save snapshot: %w", err)
	}

	report.FinishedAt = time.Now()
	w.metrics.RunsTotal.WithLabelValues("success").Inc()
	log.Info("Run finished",
		"changes", report.ChangesDetected,
		"notified", report.GroupsNotified,
		"failed", report.GroupsFailed,
		"duration", report.FinishedAt.Sub(report.StartedAt).String())

	return report, nil
}

// BuildNotification compiles the audience and presentation of a change group
func (w *FlightWatcher) BuildNotification(group ChangeGroup) *entity.Notification {
	presentation := w.presenter.Present(group)
	return &entity.Notification{
		GroupKey:    group.Key,
		Filters:     w.filterBuilder.Build(group.AirlineCodes),
		Title:       presentation.Title,
		Body:        presentation.Body,
		Category:    group.Category(),
		Sound:       presentation.Sound,
		ChangeCount: group.Count(),
	}
}

func (w *FlightWatcher) dispatchGroup(ctx context.Context, log logger.Logger, runID string, group ChangeGroup) error {
	notification := w.BuildNotification(group)
	log = log.With("group", group.Key, "changes", group.Count())

	record := &entity.DispatchLog{
		RunID:        runID,
		GroupKey:     group.Key,
		AirlineCodes: group.AirlineCodes,
		Category:     notification.Category,
		Title:        notification.Title,
		Body:         notification.Body,
		Filters:      notification.Filters.String(),
		ChangeCount:  notification.ChangeCount,
		StartedAt:    time.Now(),
	}

	sendCtx := ctx
	if w.dispatchTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, w.dispatchTimeout)
		defer cancel()
	}

	log.Info("Sending notification", "title", notification.Title, "filters", record.Filters)
	result, err := w.notifier.Send(sendCtx, notification)
	record.FinishedAt = time.Now()

	if err != nil {
		log.Error("Failed to send notification", "error", err)
		w.metrics.ErrorsCount.WithLabelValues("dispatch").Inc()
		record.Status = entity.StatusFailed
		record.ErrorDetail = err.Error()
	} else {
		w.metrics.NotificationsSent.Inc()
		record.Status = entity.StatusCompleted
		if result != nil {
			record.NotificationID = result.NotificationID
			record.Recipients = result.Recipients
		}
		log.Info("Notification sent",
			"notificationId", record.NotificationID,
			"recipients", record.Recipients)
	}

	w.saveDispatchLog(ctx, log, record)
	return err
}

// RunDispatches returns the recorded dispatch attempts of a run, or nil when no dispatch
// log is configured
func (w *FlightWatcher) RunDispatches(ctx context.Context, runID string) ([]*entity.DispatchLog, error) {
	if w.dispatchLog == nil {
		return nil, nil
	}
	logs, err := w.dispatchLog.FindByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to read dispatch log of run %s: %w", runID, err)
	}
	return logs, nil
}

func (w *FlightWatcher) saveDispatchLog(ctx context.Context, log logger.Logger, record *entity.DispatchLog) {
	if w.dispatchLog == nil {
		return
	}
	if err := w.dispatchLog.Save(ctx, record); err != nil {
		log.Error("Failed to save dispatch log", "error", err)
		w.metrics.ErrorsCount.WithLabelValues("dispatch_log").Inc()
	}
}

func (w *FlightWatcher) fail(operation string) {
	w.metrics.ErrorsCount.WithLabelValues(operation).Inc()
	w.metrics.RunsTotal.WithLabelValues("failure").Inc()
}
