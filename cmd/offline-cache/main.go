package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	offlinecache "github.com/offline-cache/offline-cache"
	"github.com/offline-cache/offline-cache/cache"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// CLI flags
	configFilenameFlag string
	portFlag           int
	originFlag         string
	hostFlag           string
	generationFlag     string
	dbFilenameFlag     string
	skipWaitingFlag    bool
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&configFilenameFlag, "config", "", "Path to config file")
	flag.StringVar(&originFlag, "origin", "", "Origin URL to proxy to (overrides config)")
	flag.StringVar(&hostFlag, "host", "", "Hostname of origin")
	flag.IntVar(&portFlag, "port", 8080, "Port to listen on")
	flag.StringVar(&generationFlag, "generation", "", "Deployment generation tag (overrides config)")
	flag.StringVar(&dbFilenameFlag, "db", "cache.db", "Cache DB file name (use 'memory' for in-memory db)")
	flag.BoolVar(&skipWaitingFlag, "skip-waiting", false, "Activate immediately after install")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	// set log level
	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// set up log output to stdout
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stdout})
	if logFilenameFlag != "" {
		if logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		} else {
			logOutputs = append(logOutputs, logFileOutput)
		}
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	var config Config
	if configFilenameFlag != "" {
		var err error
		config, err = getConfig(configFilenameFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not read config file")
		}
	}
	if originFlag != "" {
		config.Origin = originFlag
	}
	if hostFlag != "" {
		config.Host = hostFlag
	}
	if generationFlag != "" {
		config.Generation = generationFlag
	}
	if config.Port == 0 {
		config.Port = portFlag
	}
	if skipWaitingFlag {
		config.SkipWaiting = true
	}
	if config.Origin == "" {
		log.Fatal().Msg("Please specify origin")
	}

	originURL, err := url.Parse(config.Origin)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not parse origin url")
	}

	// set up sqlite provider
	dbFilename := dbFilenameFlag
	if dbFilename == "memory" {
		dbFilename = "file::memory:?cache=shared"
	}

	worker := offlinecache.New(offlinecache.Config{
		Store:             cache.NewSQLiteStore(dbFilename),
		OriginURL:         *originURL,
		OriginHost:        config.Host,
		Generation:        config.Generation,
		Logger:            &log.Logger,
		APIPrefix:         config.APIPrefix,
		OfflinePath:       config.Offline,
		WarmList:          config.WarmList,
		APITTL:            time.Duration(config.APITTLSeconds) * time.Second,
		APIMaxEntries:     config.APIMax,
		DynamicMaxEntries: config.DynamicMax,
		SkipWaiting:       config.SkipWaiting,
	})

	ctx := context.Background()
	if err := worker.Install(ctx); err != nil {
		log.Fatal().Err(err).Msg("Install failed")
	}
	if worker.State() != offlinecache.StateActivated {
		if err := worker.Activate(ctx); err != nil {
			log.Fatal().Err(err).Msg("Activate failed")
		}
	}

	r := chi.NewRouter()
	r.Post("/-/command/{name}", func(rw http.ResponseWriter, req *http.Request) {
		cmd := offlinecache.Command(chi.URLParam(req, "name"))
		if err := worker.Dispatch(req.Context(), cmd); err != nil {
			log.Warn().Err(err).Str("command", string(cmd)).Msg("Command failed")
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		// no acknowledgment payload
		rw.WriteHeader(http.StatusAccepted)
	})
	r.Handle("/*", worker)

	log.Info().Msgf("Proxying port %v to %s (generation '%s')", config.Port, originURL.String(), worker.Generation())
	if err := http.ListenAndServe(fmt.Sprintf(":%d", config.Port), r); err != nil {
		panic(err)
	}
}
