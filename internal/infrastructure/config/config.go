// internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Snapshot store kinds
const (
	StoreFile   = "file"
	StoreGit    = "git"
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	LogLevel   string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Scheduler
	RunInterval time.Duration
	RunOnce     bool

	// Flight board
	FlightSourceURL     string
	FlightSourceTimeout time.Duration

	// Snapshot store
	SnapshotStore string
	SnapshotPath  string
	SnapshotKey   string
	SQLitePath    string

	// Git
	GitRepoDir     string
	GitPush        bool
	GitRemote      string
	GitAuthorName  string
	GitAuthorEmail string
	GitToken       string

	// MongoDB
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// PostgreSQL
	PostgresURI string

	// Audience
	AirlinesCSV       string
	KnownAirlineCodes []string
	AllFlightsTag     string
	GroupingMode      string

	// OneSignal
	OneSignalAPIURL     string
	OneSignalAppID      string
	OneSignalRESTAPIKey string
	DispatchTimeout     time.Duration

	// Presentation
	DepartureTitle string
	ArrivalTitle   string
	DepartureSound string
	ArrivalSound   string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	// Set defaults and override with env vars
	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,

		RunInterval: time.Duration(getEnvAsInt("RUN_INTERVAL", 300)) * time.Second,
		RunOnce:     getEnvAsBool("RUN_ONCE", false),

		FlightSourceURL:     getEnv("FLIGHT_SOURCE_URL", "https://www.beirutairport.gov.lb/_flight.php"),
		FlightSourceTimeout: time.Duration(getEnvAsInt("FLIGHT_SOURCE_TIMEOUT", 20)) * time.Second,

		SnapshotStore: strings.ToLower(getEnv("SNAPSHOT_STORE", StoreFile)),
		SnapshotPath:  getEnv("SNAPSHOT_PATH", "flight_data.json"),
		SnapshotKey:   getEnv("SNAPSHOT_KEY", "current"),
		SQLitePath:    getEnv("SQLITE_PATH", "data/flightwatch.db"),

		GitRepoDir:     getEnv("GIT_REPO_DIR", "."),
		GitPush:        getEnvAsBool("GIT_PUSH", false),
		GitRemote:      getEnv("GIT_REMOTE", "origin"),
		GitAuthorName:  getEnv("GIT_AUTHOR_NAME", "GitHub Action"),
		GitAuthorEmail: getEnv("GIT_AUTHOR_EMAIL", "action@github.com"),
		GitToken:       getEnv("GIT_TOKEN", ""),

		MongoURI:      getEnv("MONGODB_DSN", ""),
		MongoDB:       getEnv("MONGO_DB", "flightwatch"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		PostgresURI: getEnv("POSTGRES_DSN", ""),

		AirlinesCSV:       getEnv("AIRLINES_CSV", ""),
		KnownAirlineCodes: getEnvAsList("KNOWN_AIRLINE_CODES", []string{"ME", "TK", "AF", "EK", "QR", "RJ"}),
		AllFlightsTag:     getEnv("ALL_FLIGHTS_TAG", "all_flights"),
		GroupingMode:      strings.ToLower(getEnv("GROUPING_MODE", "per_airline")),

		OneSignalAPIURL:     getEnv("ONESIGNAL_API_URL", "https://onesignal.com"),
		OneSignalAppID:      getEnv("ONESIGNAL_APP_ID", ""),
		OneSignalRESTAPIKey: getEnv("ONESIGNAL_REST_API_KEY", ""),
		DispatchTimeout:     time.Duration(getEnvAsInt("DISPATCH_TIMEOUT", 30)) * time.Second,

		DepartureTitle: getEnv("DEPARTURE_TITLE", ""),
		ArrivalTitle:   getEnv("ARRIVAL_TITLE", ""),
		DepartureSound: getEnv("DEPARTURE_SOUND", ""),
		ArrivalSound:   getEnv("ARRIVAL_SOUND", ""),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks settings that would otherwise fail halfway through a run
func (c *Config) Validate() error {
	switch c.SnapshotStore {
	case StoreFile, StoreGit, StoreSQLite:
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("invalid config: SNAPSHOT_STORE=mongo requires MONGODB_DSN")
		}
	default:
		return fmt.Errorf("invalid config: unknown SNAPSHOT_STORE %q", c.SnapshotStore)
	}

	switch c.GroupingMode {
	case "per_airline", "combined":
	default:
		return fmt.Errorf("invalid config: unknown GROUPING_MODE %q", c.GroupingMode)
	}

	if c.OneSignalAppID == "" {
		return fmt.Errorf("invalid config: ONESIGNAL_APP_ID is required")
	}
	if c.RunInterval <= 0 {
		return fmt.Errorf("invalid config: RUN_INTERVAL must be positive")
	}

	return nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList reads a comma separated list, dropping blank items
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	var values []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			values = append(values, item)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
