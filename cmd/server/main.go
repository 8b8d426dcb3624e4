package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flightwatch-service/internal/domain/entity"
	"flightwatch-service/internal/domain/repository"
	"flightwatch-service/internal/infrastructure/config"
	"flightwatch-service/internal/infrastructure/persistence"
	"flightwatch-service/internal/infrastructure/router"
	flightRepo "flightwatch-service/internal/interface/repository"
	"flightwatch-service/internal/interface/scraper"
	"flightwatch-service/internal/usecase"
	"flightwatch-service/pkg/logger"
	"flightwatch-service/pkg/metrics"
	"flightwatch-service/templates"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger("info").Fatal("Failed to load config", "error", err)
	}

	// Create logger
	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()
	log.Info("Starting Flightwatch Service", "version", cfg.AppVersion)

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up MongoDB connection when a DSN is configured
	var (
		mongoClient *mongo.Client
		mongoDB     *mongo.Database
	)
	if cfg.MongoURI != "" {
		log.Info("Connecting to MongoDB")
		mongoClient, err = persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoUser, cfg.MongoPassword)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB", "error", err)
		}
		mongoDB = persistence.GetDatabase(mongoClient, cfg.MongoDB)
	}

	var gormDB *gorm.DB
	if cfg.PostgresURI != "" {
		gormDB, err = persistence.NewPostgresDB(cfg.PostgresURI)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", "error", err)
		}
	}

	// Set up repositories
	snapshotStore, closeStore, err := newSnapshotStore(cfg, mongoDB, log)
	if err != nil {
		log.Fatal("Failed to set up snapshot store", "store", cfg.SnapshotStore, "error", err)
	}
	defer closeStore()

	var dispatchLogRepo repository.DispatchLogRepository
	if mongoDB != nil {
		dispatchLogRepo = flightRepo.NewMongoDispatchLogRepository(mongoDB)
	}

	notificationRepo := flightRepo.NewOneSignalRepository(
		cfg.OneSignalAPIURL,
		cfg.OneSignalAppID,
		cfg.OneSignalRESTAPIKey,
		cfg.DispatchTimeout,
		log,
	)

	airlines, err := loadAirlineDirectory(ctx, cfg, gormDB, log)
	if err != nil {
		log.Fatal("Failed to load airlines", "error", err)
	}

	// Pick the flight source
	sourceRouter := router.NewSourceRouter(log)
	sourceRouter.Register(scraper.NewJSONFeedProvider(cfg.FlightSourceURL, cfg.FlightSourceTimeout, log))
	sourceRouter.Register(scraper.NewBoardScraper(cfg.FlightSourceURL, cfg.FlightSourceTimeout, log))
	provider, err := sourceRouter.Resolve(cfg.FlightSourceURL)
	if err != nil {
		log.Fatal("Failed to pick flight source", "error", err)
	}

	groupKey, err := usecase.GroupKeyFuncFor(cfg.GroupingMode)
	if err != nil {
		log.Fatal("Failed to configure grouping", "error", err)
	}

	presenter := templates.NewFlightNotificationPresenter(map[entity.Category]templates.CategoryStyle{
		entity.CategoryDeparture: {Title: cfg.DepartureTitle, Sound: cfg.DepartureSound},
		entity.CategoryArrival:   {Title: cfg.ArrivalTitle, Sound: cfg.ArrivalSound},
	}, airlines)

	watcher := usecase.NewFlightWatcher(
		provider,
		snapshotStore,
		notificationRepo,
		dispatchLogRepo,
		usecase.NewAudienceFilterBuilder(airlines.Codes(), cfg.AllFlightsTag),
		presenter,
		groupKey,
		cfg.DispatchTimeout,
		metrics.NewMetrics("flightwatch", prometheus.DefaultRegisterer),
		log,
	)

	if cfg.RunOnce {
		report, err := watcher.Run(ctx)
		if report != nil {
			logFailedDispatches(ctx, log, watcher, report.RunID)
		}
		disconnect(log, mongoClient, gormDB)
		if err != nil {
			log.Fatal("Flight watcher run failed", "error", err)
		}
		log.Info("Flightwatch run complete",
			"runId", report.RunID,
			"changes", report.ChangesDetected,
			"notified", report.GroupsNotified,
			"failed", report.GroupsFailed)
		return
	}

	// Start the watcher in a goroutine
	go watcher.StartPolling(ctx, cfg.RunInterval)

	// Set up HTTP server for metrics
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy"))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel() // Cancel the context to stop the watcher

	disconnect(log, mongoClient, gormDB)
	log.Info("Flightwatch Service stopped")
}

// newSnapshotStore builds the configured store and its cleanup function
func newSnapshotStore(cfg *config.Config, mongoDB *mongo.Database, log logger.Logger) (repository.SnapshotRepository, func(), error) {
	noop := func() {}

	switch cfg.SnapshotStore {
	case config.StoreGit:
		return flightRepo.NewGitSnapshotRepository(cfg.SnapshotPath, flightRepo.GitOptions{
			RepoDir:     cfg.GitRepoDir,
			AuthorName:  cfg.GitAuthorName,
			AuthorEmail: cfg.GitAuthorEmail,
			Push:        cfg.GitPush,
			Remote:      cfg.GitRemote,
			Token:       cfg.GitToken,
		}, log), noop, nil
	case config.StoreMongo:
		return flightRepo.NewMongoSnapshotRepository(mongoDB, cfg.SnapshotKey), noop, nil
	case config.StoreSQLite:
		store, err := flightRepo.NewSQLiteSnapshotRepository(cfg.SQLitePath, cfg.SnapshotKey)
		if err != nil {
			return nil, noop, err
		}
		return store, func() { store.Close() }, nil
	default:
		return flightRepo.NewFileSnapshotRepository(cfg.SnapshotPath), noop, nil
	}
}

// loadAirlineDirectory prefers the airlines table, then the CSV seed, then the configured
// codes
func loadAirlineDirectory(ctx context.Context, cfg *config.Config, gormDB *gorm.DB, log logger.Logger) (*entity.AirlineDirectory, error) {
	var airlineRepository repository.AirlineRepository
	switch {
	case gormDB != nil:
		airlineRepository = flightRepo.NewGormAirlineRepository(gormDB)
	case cfg.AirlinesCSV != "":
		repo, err := flightRepo.NewCSVAirlineRepository(cfg.AirlinesCSV)
		if err != nil {
			return nil, err
		}
		airlineRepository = repo
	default:
		log.Info("Using configured airline codes", "codes", cfg.KnownAirlineCodes)
		return entity.AirlineDirectoryFromCodes(cfg.KnownAirlineCodes), nil
	}

	airlines, err := airlineRepository.List(ctx)
	if err != nil {
		return nil, err
	}
	directory := entity.NewAirlineDirectory(airlines)
	if directory.Len() == 0 {
		log.Warn("Airline source is empty, falling back to configured codes")
		return entity.AirlineDirectoryFromCodes(cfg.KnownAirlineCodes), nil
	}

	log.Info("Airlines loaded", "count", directory.Len())
	return directory, nil
}

// logFailedDispatches reports every failed group of a run from the dispatch log
func logFailedDispatches(ctx context.Context, log logger.Logger, watcher *usecase.FlightWatcher, runID string) {
	dispatches, err := watcher.RunDispatches(ctx, runID)
	if err != nil {
		log.Error("Failed to read dispatch log", "error", err)
		return
	}
	for _, dispatch := range dispatches {
		if dispatch.Status == entity.StatusFailed {
			log.Warn("Notification not delivered",
				"group", dispatch.GroupKey,
				"changes", dispatch.ChangeCount,
				"error", dispatch.ErrorDetail)
		}
	}
}

func disconnect(log logger.Logger, mongoClient *mongo.Client, gormDB *gorm.DB) {
	if mongoClient != nil {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error("MongoDB disconnect error", "error", err)
		}
	}
	if gormDB != nil {
		if err := persistence.ClosePostgresDB(gormDB); err != nil {
			log.Error("PostgreSQL close error", "error", err)
		}
	}
}
