package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production" - controls TLS verification
	Places      PlacesConfig     `toml:"places"`
	Collection  CollectionConfig `toml:"collection"`
	Output      OutputConfig     `toml:"output"`
	Storage     StorageConfig    `toml:"storage"`
	Schedule    ScheduleConfig   `toml:"schedule"`
	Server      ServerConfig     `toml:"server"`
	Logging     LoggingConfig    `toml:"logging"`
	Telemetry   TelemetryConfig  `toml:"telemetry"`
}

// PlacesConfig contains Google Places API configuration
type PlacesConfig struct {
	APIKey             string        `toml:"api_key"`                                  // Fallback API key when the environment variable is unset
	APIKeyEnv          string        `toml:"api_key_env" validate:"required"`          // Environment variable holding the API key
	EnvFile            string        `toml:"env_file"`                                 // Local .env file loaded before reading APIKeyEnv
	BaseURL            string        `toml:"base_url" validate:"required,url"`         // Places API root, endpoints are appended
	Type               string        `toml:"type"`                                     // Nearby search type filter
	Keyword            string        `toml:"keyword"`                                  // Nearby search keyword
	Radius             int           `toml:"radius" validate:"gt=0,lte=50000"`         // Search radius in meters
	PhotoMaxWidth      int           `toml:"photo_max_width" validate:"gt=0,lte=4800"` // Requested photo width in pixels
	RequestTimeout     time.Duration `toml:"request_timeout"`                          // 0 disables the timeout
	InsecureSkipVerify bool          `toml:"insecure_skip_verify"`                     // Development only, forced off in production
}

// CollectionConfig controls how much data one run collects
type CollectionConfig struct {
	Latitude             float64 `toml:"latitude" validate:"gte=-90,lte=90"`
	Longitude            float64 `toml:"longitude" validate:"gte=-180,lte=180"`
	NumRestaurants       int     `toml:"num_restaurants" validate:"gt=0"`
	MaxPhotos            int     `toml:"max_photos" validate:"gte=0,lte=3"`
	MaxReviewsWithPhotos int     `toml:"max_reviews_with_photos" validate:"gte=0,lte=5"`
	MaxPhotosPerReview   int     `toml:"max_photos_per_review" validate:"gte=0,lte=2"`
	MaxReviews           int     `toml:"max_reviews" validate:"gte=0,lte=10"`
	PhotoConcurrency     int     `toml:"photo_concurrency" validate:"gt=0,lte=16"` // Parallel photo downloads per restaurant
}

// OutputConfig contains filesystem output locations
type OutputConfig struct {
	DataDir  string `toml:"data_dir" validate:"required"`
	PhotoDir string `toml:"photo_dir" validate:"required"`
	Filename string `toml:"filename" validate:"required"`
}

// ScheduleConfig contains periodic collection settings for serve mode
type ScheduleConfig struct {
	Collect string `toml:"collect"` // Cron expression with seconds field, empty disables
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Enabled bool   `toml:"enabled"` // Record run history
	Path    string `toml:"path"`    // Database directory path
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Output     []string `toml:"output"`      // "stdout", "file"
	Dir        string   `toml:"dir"`         // Log and crash file directory
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// TelemetryConfig controls OpenTelemetry tracing of collection runs and HTTP calls
type TelemetryConfig struct {
	Enabled     bool    `toml:"enabled"`
	ServiceName string  `toml:"service_name" validate:"required"`
	Exporter    string  `toml:"exporter" validate:"oneof=stdout file"` // "file" appends JSON spans to FilePath
	FilePath    string  `toml:"file_path" validate:"required_if=Exporter file"`
	SampleRatio float64 `toml:"sample_ratio" validate:"gte=0,lte=1"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Places: PlacesConfig{
			APIKey:             "",
			APIKeyEnv:          "GOOGLE_API_KEY",
			EnvFile:            ".env",
			BaseURL:            "https://maps.googleapis.com/maps/api/place",
			Type:               "restaurant",
			Keyword:            "健身餐",
			Radius:             1000,
			PhotoMaxWidth:      400,
			RequestTimeout:     30 * time.Second,
			InsecureSkipVerify: true,
		},
		Collection: CollectionConfig{
			Latitude:             25.0330, // Taipei 101
			Longitude:            121.5654,
			NumRestaurants:       3,
			MaxPhotos:            3,
			MaxReviewsWithPhotos: 5,
			MaxPhotosPerReview:   2,
			MaxReviews:           10,
			PhotoConcurrency:     1,
		},
		Output: OutputConfig{
			DataDir:  "data",
			PhotoDir: "data/photos",
			Filename: "restaurant_test_data.json",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Enabled: true,
				Path:    "data/runs",
			},
		},
		Schedule: ScheduleConfig{
			Collect: "",
		},
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			Dir:        "logs",
			TimeFormat: "15:04:05",
		},
		Telemetry: TelemetryConfig{
			Enabled:     true,
			ServiceName: "menuscout",
			Exporter:    "file",
			FilePath:    "logs/traces.jsonl",
			SampleRatio: 1.0,
		},
	}
}

// LoadFromFiles loads configuration with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files. CLI flags are applied afterwards by the caller.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if config.IsProduction() {
		config.Places.InsecureSkipVerify = false
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("MENUSCOUT_ENV"); env != "" {
		config.Environment = env
	}

	// Places configuration
	if apiKey := os.Getenv("MENUSCOUT_PLACES_API_KEY"); apiKey != "" {
		config.Places.APIKey = apiKey
	}
	if baseURL := os.Getenv("MENUSCOUT_PLACES_BASE_URL"); baseURL != "" {
		config.Places.BaseURL = baseURL
	}
	if keyword := os.Getenv("MENUSCOUT_PLACES_KEYWORD"); keyword != "" {
		config.Places.Keyword = keyword
	}
	if radius := os.Getenv("MENUSCOUT_PLACES_RADIUS"); radius != "" {
		if r, err := strconv.Atoi(radius); err == nil {
			config.Places.Radius = r
		}
	}
	if timeout := os.Getenv("MENUSCOUT_PLACES_REQUEST_TIMEOUT"); timeout != "" {
		if t, err := time.ParseDuration(timeout); err == nil {
			config.Places.RequestTimeout = t
		}
	}
	if insecure := os.Getenv("MENUSCOUT_PLACES_INSECURE_SKIP_VERIFY"); insecure != "" {
		if b, err := strconv.ParseBool(insecure); err == nil {
			config.Places.InsecureSkipVerify = b
		}
	}

	// Collection configuration
	if lat := os.Getenv("MENUSCOUT_COLLECTION_LATITUDE"); lat != "" {
		if f, err := strconv.ParseFloat(lat, 64); err == nil {
			config.Collection.Latitude = f
		}
	}
	if lng := os.Getenv("MENUSCOUT_COLLECTION_LONGITUDE"); lng != "" {
		if f, err := strconv.ParseFloat(lng, 64); err == nil {
			config.Collection.Longitude = f
		}
	}
	if count := os.Getenv("MENUSCOUT_COLLECTION_NUM_RESTAURANTS"); count != "" {
		if n, err := strconv.Atoi(count); err == nil {
			config.Collection.NumRestaurants = n
		}
	}
	if concurrency := os.Getenv("MENUSCOUT_COLLECTION_PHOTO_CONCURRENCY"); concurrency != "" {
		if n, err := strconv.Atoi(concurrency); err == nil {
			config.Collection.PhotoConcurrency = n
		}
	}

	// Output configuration
	if dataDir := os.Getenv("MENUSCOUT_OUTPUT_DATA_DIR"); dataDir != "" {
		config.Output.DataDir = dataDir
	}
	if photoDir := os.Getenv("MENUSCOUT_OUTPUT_PHOTO_DIR"); photoDir != "" {
		config.Output.PhotoDir = photoDir
	}

	// Storage configuration
	if badgerPath := os.Getenv("MENUSCOUT_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Schedule configuration
	if schedule := os.Getenv("MENUSCOUT_SCHEDULE_COLLECT"); schedule != "" {
		config.Schedule.Collect = schedule
	}

	// Telemetry configuration
	if enabled := os.Getenv("MENUSCOUT_TELEMETRY_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Telemetry.Enabled = b
		}
	}
	if exporter := os.Getenv("MENUSCOUT_TELEMETRY_EXPORTER"); exporter != "" {
		config.Telemetry.Exporter = exporter
	}
	if path := os.Getenv("MENUSCOUT_TELEMETRY_FILE_PATH"); path != "" {
		config.Telemetry.FilePath = path
	}

	// Server configuration
	if port := os.Getenv("MENUSCOUT_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	// Logging configuration
	if level := os.Getenv("MENUSCOUT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if dir := os.Getenv("MENUSCOUT_LOG_DIR"); dir != "" {
		config.Logging.Dir = dir
	}
	if output := os.Getenv("MENUSCOUT_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// FlagOverrides carries command-line values; zero values leave config untouched
type FlagOverrides struct {
	Latitude       *float64
	Longitude      *float64
	NumRestaurants int
	Radius         int
	Keyword        string
	Port           int
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, flags FlagOverrides) {
	if flags.Latitude != nil {
		config.Collection.Latitude = *flags.Latitude
	}
	if flags.Longitude != nil {
		config.Collection.Longitude = *flags.Longitude
	}
	if flags.NumRestaurants > 0 {
		config.Collection.NumRestaurants = flags.NumRestaurants
	}
	if flags.Radius > 0 {
		config.Places.Radius = flags.Radius
	}
	if flags.Keyword != "" {
		config.Places.Keyword = flags.Keyword
	}
	if flags.Port > 0 {
		config.Server.Port = flags.Port
	}
}

// Validate checks the resolved configuration against its struct tags
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
