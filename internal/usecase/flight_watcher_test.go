package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"flightwatch-service/internal/domain/entity"
	"flightwatch-service/pkg/logger"
	"flightwatch-service/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	snapshot entity.Snapshot
	err      error
}

func (p *fakeProvider) Fetch(ctx context.Context) (entity.Snapshot, error) {
	return p.snapshot, p.err
}

type fakeStore struct {
	snapshot entity.Snapshot
	loadErr  error
	saveErr  error
	saved    []entity.Snapshot
}

func (s *fakeStore) Load(ctx context.Context) (entity.Snapshot, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.snapshot == nil {
		return nil, entity.ErrSnapshotNotFound
	}
	return s.snapshot, nil
}

func (s *fakeStore) Save(ctx context.Context, snapshot entity.Snapshot) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, snapshot)
	s.snapshot = snapshot
	return nil
}

type fakeNotifier struct {
	sent   []*entity.Notification
	failOn map[string]error
}

func (n *fakeNotifier) Send(ctx context.Context, notification *entity.Notification) (*entity.DispatchResult, error) {
	if err := n.failOn[notification.GroupKey]; err != nil {
		return nil, err
	}
	n.sent = append(n.sent, notification)
	return &entity.DispatchResult{NotificationID: "id-" + notification.GroupKey, Recipients: 3}, nil
}

type fakeDispatchLog struct {
	logs []*entity.DispatchLog
}

func (l *fakeDispatchLog) Save(ctx context.Context, log *entity.DispatchLog) error {
	l.logs = append(l.logs, log)
	return nil
}

func (l *fakeDispatchLog) FindByRunID(ctx context.Context, runID string) ([]*entity.DispatchLog, error) {
	var out []*entity.DispatchLog
	for _, log := range l.logs {
		if log.RunID == runID {
			out = append(out, log)
		}
	}
	return out, nil
}

type stubPresenter struct{}

func (stubPresenter) Present(group ChangeGroup) Presentation {
	return Presentation{
		Title: string(group.Category()),
		Body:  group.SummaryMessage(func(g ChangeGroup) string { return "many" }),
		Sound: "sound",
	}
}

type watcherFixture struct {
	provider *fakeProvider
	store    *fakeStore
	notifier *fakeNotifier
	logs     *fakeDispatchLog
	metrics  *metrics.Metrics
	watcher  *FlightWatcher
}

func newWatcherFixture(previous, current entity.Snapshot, groupKey GroupKeyFunc) *watcherFixture {
	f := &watcherFixture{
		provider: &fakeProvider{snapshot: current},
		store:    &fakeStore{snapshot: previous},
		notifier: &fakeNotifier{failOn: map[string]error{}},
		logs:     &fakeDispatchLog{},
		metrics:  metrics.NewMetrics("test", prometheus.NewRegistry()),
	}
	f.watcher = NewFlightWatcher(
		f.provider,
		f.store,
		f.notifier,
		f.logs,
		NewAudienceFilterBuilder([]string{"TK", "EK", "QR"}, "all_flights"),
		stubPresenter{},
		groupKey,
		time.Second,
		f.metrics,
		logger.NewNopLogger(),
	)
	return f
}

func boardSnapshot(statuses map[string]string) entity.Snapshot {
	codes := map[string]string{"TK1-d": "TK", "TK2-d": "TK", "EK1-d": "EK", "XX1-d": ""}
	types := map[string]entity.FlightType{
		"TK1-d": entity.FlightDeparture,
		"TK2-d": entity.FlightArrival,
		"EK1-d": entity.FlightArrival,
		"XX1-d": entity.FlightArrival,
	}
	snapshot := entity.Snapshot{}
	for id, status := range statuses {
		snapshot[id] = entity.FlightRecord{
			ID:           id,
			FlightNumber: id[:3],
			AirlineCode:  codes[id],
			Status:       status,
			Type:         types[id],
		}
	}
	return snapshot
}

func TestFlightWatcher_Run_FirstRun(t *testing.T) {
	current := boardSnapshot(map[string]string{"TK1-d": "On Time"})
	f := newWatcherFixture(nil, current, GroupByAirline)

	report, err := f.watcher.Run(context.Background())

	require.NoError(t, err)
	assert.True(t, report.FirstRun)
	assert.Equal(t, 0, report.ChangesDetected)
	assert.Empty(t, f.notifier.sent)
	require.Len(t, f.store.saved, 1)
	assert.Equal(t, current, f.store.saved[0])
}

func TestFlightWatcher_Run_NotifiesPerAirline(t *testing.T) {
	previous := boardSnapshot(map[string]string{
		"TK1-d": "On Time", "TK2-d": "On Time", "EK1-d": "On Time", "XX1-d": "On Time",
	})
	current := boardSnapshot(map[string]string{
		"TK1-d": "Boarding", "TK2-d": "Landed", "EK1-d": "Delayed", "XX1-d": "Cancelled",
	})
	f := newWatcherFixture(previous, current, GroupByAirline)

	report, err := f.watcher.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, report.ChangesDetected)
	assert.Equal(t, 3, report.GroupsNotified)
	assert.Equal(t, 0, report.GroupsFailed)
	require.Len(t, f.notifier.sent, 3)

	// groups follow id order of the changes: EK1, TK1/TK2, XX1
	ek, tk, unknown := f.notifier.sent[0], f.notifier.sent[1], f.notifier.sent[2]

	assert.Equal(t, "EK", ek.GroupKey)
	assert.Equal(t, "EK1 status: Delayed", ek.Body)
	assert.Equal(t, entity.CategoryArrival, ek.Category)
	assert.True(t, ek.Filters.Matches(map[string]string{"EK": "1"}))
	assert.False(t, ek.Filters.Matches(map[string]string{"TK": "1"}))

	assert.Equal(t, "TK", tk.GroupKey)
	assert.Equal(t, "many", tk.Body)
	assert.Equal(t, 2, tk.ChangeCount)
	assert.Equal(t, entity.CategoryDeparture, tk.Category)

	assert.Equal(t, UnknownAirlineKey, unknown.GroupKey)
	assert.True(t, unknown.Filters.Matches(map[string]string{}))
	assert.True(t, unknown.Filters.Matches(map[string]string{"all_flights": "1"}))
	assert.False(t, unknown.Filters.Matches(map[string]string{"QR": "1"}))

	logs, err := f.watcher.RunDispatches(context.Background(), report.RunID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	for _, log := range logs {
		assert.Equal(t, entity.StatusCompleted, log.Status)
		assert.Equal(t, 3, log.Recipients)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.NotificationsSent))
	assert.Equal(t, current, f.store.snapshot)
}

func TestFlightWatcher_Run_CombinedMode(t *testing.T) {
	previous := boardSnapshot(map[string]string{"TK1-d": "On Time", "EK1-d": "On Time"})
	current := boardSnapshot(map[string]string{"TK1-d": "Delayed", "EK1-d": "Landed"})
	f := newWatcherFixture(previous, current, CombineAll)

	report, err := f.watcher.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.GroupsNotified)
	require.Len(t, f.notifier.sent, 1)

	notification := f.notifier.sent[0]
	assert.Equal(t, CombinedGroupKey, notification.GroupKey)
	assert.True(t, notification.Filters.Matches(map[string]string{"TK": "1"}))
	assert.True(t, notification.Filters.Matches(map[string]string{"EK": "1"}))
	assert.False(t, notification.Filters.Matches(map[string]string{"QR": "1"}))
}

func TestFlightWatcher_Run_DispatchFailureIsIsolated(t *testing.T) {
	previous := boardSnapshot(map[string]string{"TK1-d": "On Time", "EK1-d": "On Time"})
	current := boardSnapshot(map[string]string{"TK1-d": "Delayed", "EK1-d": "Landed"})
	f := newWatcherFixture(previous, current, GroupByAirline)
	f.notifier.failOn["EK"] = errors.New("push service unavailable")

	report, err := f.watcher.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.GroupsFailed)
	assert.Equal(t, 1, report.GroupsNotified)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "TK", f.notifier.sent[0].GroupKey)

	require.Len(t, f.logs.logs, 2)
	assert.Equal(t, entity.StatusFailed, f.logs.logs[0].Status)
	assert.Equal(t, "push service unavailable", f.logs.logs[0].ErrorDetail)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ErrorsCount.WithLabelValues("dispatch")))

	require.Len(t, f.store.saved, 1, "snapshot is saved even when a group fails")
}

func TestFlightWatcher_Run_Failures(t *testing.T) {
	previous := boardSnapshot(map[string]string{"TK1-d": "On Time"})
	current := boardSnapshot(map[string]string{"TK1-d": "Delayed"})

	t.Run("load error", func(t *testing.T) {
		f := newWatcherFixture(previous, current, GroupByAirline)
		f.store.loadErr = errors.New("disk gone")

		_, err := f.watcher.Run(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load previous snapshot")
		assert.Empty(t, f.notifier.sent)
		assert.Empty(t, f.store.saved)
	})

	t.Run("fetch error", func(t *testing.T) {
		f := newWatcherFixture(previous, current, GroupByAirline)
		f.provider.err = errors.New("board down")

		_, err := f.watcher.Run(context.Background())

		require.Error(t, err)
		assert.Empty(t, f.store.saved)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RunsTotal.WithLabelValues("failure")))
	})

	t.Run("save error", func(t *testing.T) {
		f := newWatcherFixture(previous, current, GroupByAirline)
		f.store.saveErr = errors.New("read-only")

		report, err := f.watcher.Run(context.Background())

		require.Error(t, err)
		assert.Equal(t, 1, report.GroupsNotified)
	})
}

func TestFlightWatcher_Run_EmptyBoardKeepsPreviousSnapshot(t *testing.T) {
	previous := boardSnapshot(map[string]string{"TK1-d": "On Time"})
	f := newWatcherFixture(previous, entity.Snapshot{}, GroupByAirline)

	report, err := f.watcher.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, report.FlightsSeen)
	assert.Empty(t, f.store.saved)
	assert.Equal(t, previous, f.store.snapshot)
}

func TestFlightWatcher_Run_CancelledKeepsPreviousSnapshot(t *testing.T) {
	previous := boardSnapshot(map[string]string{"TK1-d": "On Time"})
	current := boardSnapshot(map[string]string{"TK1-d": "Delayed"})
	f := newWatcherFixture(previous, current, GroupByAirline)
	f.notifier.failOn["TK"] = context.Canceled

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.watcher.Run(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, report.GroupsFailed)
	assert.Empty(t, f.store.saved)
	assert.Equal(t, previous, f.store.snapshot)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RunsTotal.WithLabelValues("failure")))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.RunsTotal.WithLabelValues("success")))

	// the change is still pending and goes out on the next run
	report, err = f.watcher.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.ChangesDetected)
}

func TestFlightWatcher_RunDispatches_WithoutLog(t *testing.T) {
	f := newWatcherFixture(nil, entity.Snapshot{}, GroupByAirline)
	watcher := NewFlightWatcher(f.provider, f.store, f.notifier, nil,
		NewAudienceFilterBuilder(nil, ""), stubPresenter{}, nil, time.Second, f.metrics, logger.NewNopLogger())

	logs, err := watcher.RunDispatches(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Nil(t, logs)
}
