package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/menuscout/internal/app"
	"github.com/ternarybob/menuscout/internal/common"
	"github.com/ternarybob/menuscout/internal/server"
	"github.com/ternarybob/menuscout/internal/services/collection"
	"github.com/ternarybob/menuscout/internal/storage"
	"github.com/ternarybob/menuscout/internal/telemetry"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles    configPaths // Multiple -config flags supported
	latitude       = flag.Float64("lat", 0, "Search latitude (overrides config)")
	longitude      = flag.Float64("lng", 0, "Search longitude (overrides config)")
	numRestaurants = flag.Int("count", 0, "Number of restaurants to collect (overrides config)")
	numShort       = flag.Int("n", 0, "Number of restaurants to collect (shorthand)")
	radius         = flag.Int("radius", 0, "Search radius in meters (overrides config)")
	keyword        = flag.String("keyword", "", "Search keyword (overrides config)")
	serveMode      = flag.Bool("serve", false, "Run the nearby restaurants HTTP API")
	historyMode    = flag.Bool("history", false, "Print recent collection runs")
	historyFormat  = flag.String("format", "table", "History output format: table, json or yaml")
	serverPort     = flag.Int("port", 0, "Server port (overrides config)")
	showVersion    = flag.Bool("version", false, "Print version information")
	showVersionV   = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	defer common.RecoverWithCrashFile()

	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Println(common.GetFullVersion())
		os.Exit(0)
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("menuscout.toml"); err == nil {
			configFiles = append(configFiles, "menuscout.toml")
		} else if _, err := os.Stat("deployments/local/menuscout.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/menuscout.toml")
		}
	}

	// 1. Load configuration (default -> file1 -> file2 -> ... -> env)
	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration files")
		os.Exit(1)
	}

	// 2. Apply command-line flag overrides (highest priority)
	common.ApplyFlagOverrides(config, flagOverrides())

	// 3. Initialize logger with final configuration
	logger := common.SetupLogger(config)
	common.InstallCrashHandler(config.Logging.Dir)

	// 4. Resolve {NAME} references against the environment and .env file
	if err := common.LoadEnvFile(config.Places.EnvFile); err != nil {
		logger.Warn().Err(err).Msg("Failed to load .env file")
	}
	if err := common.ReplaceInStruct(config, common.EnvMap(), logger); err != nil {
		logger.Warn().Err(err).Msg("Failed to replace key references in config")
	}

	logger.Debug().
		Strs("config_files", configFiles).
		Str("environment", config.Environment).
		Str("log_level", config.Logging.Level).
		Strs("log_output", config.Logging.Output).
		Str("data_dir", config.Output.DataDir).
		Bool("history", config.Storage.Badger.Enabled).
		Msg("Resolved configuration (sanitized)")

	if err := config.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Configuration is invalid")
		os.Exit(1)
	}

	switch {
	case *historyMode:
	case *serveMode:
		common.PrintBanner("serve")
	default:
		common.PrintBanner("collect")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *historyMode {
		os.Exit(runHistory(ctx, config, logger))
	}

	// 5. Install tracing before any instrumented client or handler is built
	shutdownTracing, err := telemetry.Setup(&config.Telemetry, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to set up tracing, continuing without export")
	}

	var code int
	if *serveMode {
		code = runServer(ctx, config, logger)
	} else {
		code = runCollect(ctx, config, logger)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := shutdownTracing(flushCtx); err != nil {
		logger.Warn().Err(err).Msg("Failed to flush traces")
	}
	cancel()

	os.Exit(code)
}

// flagOverrides collects the flags that were explicitly set
func flagOverrides() common.FlagOverrides {
	overrides := common.FlagOverrides{
		NumRestaurants: *numRestaurants,
		Radius:         *radius,
		Keyword:        *keyword,
		Port:           *serverPort,
	}
	if *numShort > 0 {
		overrides.NumRestaurants = *numShort
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lat":
			overrides.Latitude = latitude
		case "lng":
			overrides.Longitude = longitude
		}
	})

	return overrides
}

// newApp builds the application, printing guidance when no API key is configured.
// Returns ok=false when the process should exit with the given code.
func newApp(config *common.Config, logger arbor.ILogger) (*app.App, int, bool) {
	application, err := app.New(config, logger)
	if err == nil {
		return application, 0, true
	}

	if errors.Is(err, common.ErrMissingAPIKey) {
		fmt.Printf("Please set %s in %s\n", config.Places.APIKeyEnv, config.Places.EnvFile)
		fmt.Printf("Example: %s=your_api_key_here\n", config.Places.APIKeyEnv)
		return nil, 0, false
	}

	logger.Error().Err(err).Msg("Failed to initialize application")
	return nil, 1, false
}

func runCollect(ctx context.Context, config *common.Config, logger arbor.ILogger) int {
	application, code, ok := newApp(config, logger)
	if !ok {
		return code
	}
	defer application.Close()

	run, err := application.RunCollection(ctx, collection.CollectRequest{
		Latitude:       config.Collection.Latitude,
		Longitude:      config.Collection.Longitude,
		NumRestaurants: config.Collection.NumRestaurants,
	})

	var statusErr *collection.SearchStatusError
	switch {
	case errors.As(err, &statusErr):
		fmt.Printf("Nearby search failed: %s\n", statusErr.Status)
		fmt.Println("No restaurant data collected")
		return 0
	case err != nil:
		logger.Error().Err(err).Str("run_id", run.ID).Msg("Collection failed")
		return 1
	case run.Collected == 0:
		fmt.Println("No restaurant data collected")
		return 0
	}

	fmt.Printf("Collected %d restaurants\n", run.Collected)
	fmt.Printf("Data file: %s\n", run.OutputPath)
	logger.Info().
		Str("run_id", run.ID).
		Int("skipped_places", run.SkippedPlaces).
		Int("photos_downloaded", run.PhotosDownloaded).
		Int("photos_skipped", run.PhotosSkipped).
		Dur("duration", run.Duration()).
		Msg("Collection complete")
	return 0
}

func runServer(ctx context.Context, config *common.Config, logger arbor.ILogger) int {
	application, code, ok := newApp(config, logger)
	if !ok {
		return code
	}
	defer application.Close()

	srv := server.New(application)

	if config.Schedule.Collect != "" {
		if err := application.Scheduler.Start(config.Schedule.Collect); err != nil {
			logger.Error().Err(err).Str("schedule", config.Schedule.Collect).Msg("Invalid collection schedule")
			return 1
		}
	}

	errChan := make(chan error, 1)
	common.SafeGo(logger, "httpServer", func() {
		errChan <- srv.Start()
	})

	logger.Info().
		Str("url", "http://"+srv.Addr()).
		Msg("Server ready - Press Ctrl+C to stop")

	select {
	case <-ctx.Done():
		logger.Info().Msg("Interrupt signal received")
	case err := <-errChan:
		if err != nil {
			logger.Error().Err(err).Msg("Server failed to start")
			return 1
		}
		return 0
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
		return 1
	}

	logger.Info().Msg("Server stopped")
	return 0
}

func runHistory(ctx context.Context, config *common.Config, logger arbor.ILogger) int {
	if !config.Storage.Badger.Enabled {
		fmt.Println("Run history is disabled ([storage.badger] enabled = false)")
		return 0
	}

	runStorage, err := storage.NewRunStorage(logger, config)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open run history")
		return 1
	}
	defer runStorage.Close()

	runs, err := runStorage.ListRuns(ctx, 20)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list runs")
		return 1
	}

	if err := printRuns(os.Stdout, runs, *historyFormat); err != nil {
		logger.Error().Err(err).Msg("Failed to print runs")
		return 1
	}
	return 0
}
