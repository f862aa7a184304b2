// Package services builds the long-lived dependencies shared by the
// vmentor serve commands: logger, transcript store, reply event publisher
// and speech synthesis.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/vmentor/vmentor/pkg/eventstream"
	"github.com/vmentor/vmentor/pkg/eventstream/kafka"
	"github.com/vmentor/vmentor/pkg/eventstream/nop"
	"github.com/vmentor/vmentor/pkg/logger"
	"github.com/vmentor/vmentor/pkg/storage"
	"github.com/vmentor/vmentor/pkg/storage/inmemory"
	"github.com/vmentor/vmentor/pkg/storage/postgres"
	"github.com/vmentor/vmentor/pkg/storage/sqlite"
	"github.com/vmentor/vmentor/pkg/tts"
)

// Logging holds the logger settings of a serve command.
type Logging struct {
	Level   string
	Debug   bool
	LogFile string
}

// Logger is a service logger whose level can be changed at runtime.
type Logger struct {
	*slog.Logger
	Level *slog.LevelVar
	file  *os.File
}

// SetLevel parses s and applies it. Unknown levels are ignored and
// reported.
func (l *Logger) SetLevel(s string) {
	level, err := logger.ParseLevel(s)
	if err != nil {
		l.Warn("ignoring log level", "error", err)
		return
	}
	if level != l.Level.Level() {
		l.Level.Set(level)
		l.Info("log level changed", "level", level.String())
	}
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// NewLogger builds the logger of a serve command: colorized records on
// stderr, plus JSON records appended to LogFile when set. --debug wins over
// the configured level.
func NewLogger(opts Logging) (*Logger, error) {
	level := new(slog.LevelVar)
	if opts.Debug {
		level.Set(slog.LevelDebug)
	} else {
		parsed, err := logger.ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		level.Set(parsed)
	}

	console := logger.New(
		logger.WithWriter(os.Stderr),
		logger.WithPretty(true),
		logger.WithLevelVar(level),
	)

	if opts.LogFile == "" {
		return &Logger{Logger: console, Level: level}, nil
	}

	f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithWriter(f),
		logger.WithJSON(true),
		logger.WithLevelVar(level),
	)

	return &Logger{Logger: logger.Multi(console, file), Level: level, file: f}, nil
}

// Storage selects the transcript store.
type Storage struct {
	PostgresDSN string
	SQLitePath  string
}

// NewStorageDriver opens PostgreSQL when a DSN is set, else SQLite when a
// path is set, else an in-memory store.
func NewStorageDriver(ctx context.Context, opts Storage, log *slog.Logger) (storage.Driver, error) {
	switch {
	case opts.PostgresDSN != "":
		driver, err := postgres.NewDriver(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL driver: %w", err)
		}
		log.Info("using PostgreSQL storage")
		return driver, nil

	case opts.SQLitePath != "":
		driver, err := sqlite.NewDriver(ctx, opts.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite driver: %w", err)
		}
		log.Info("using SQLite storage", "path", opts.SQLitePath)
		return driver, nil

	default:
		log.Info("using in-memory storage")
		return inmemory.NewDriver(), nil
	}
}

// EventStream selects the reply event publisher.
type EventStream struct {
	Provider string
	Brokers  string
	Topic    string
}

// NewPublisher returns the publisher named by Provider.
func NewPublisher(opts EventStream, log *slog.Logger) (eventstream.Publisher, error) {
	switch opts.Provider {
	case "", "nop":
		return nop.NewPublisher(), nil

	case "kafka":
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: strings.Split(opts.Brokers, ","),
			Topic:   opts.Topic,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		log.Info("publishing reply events to kafka", "brokers", opts.Brokers, "topic", opts.Topic)
		return p, nil

	default:
		return nil, fmt.Errorf("unknown event stream provider: %q (nop, kafka)", opts.Provider)
	}
}

// Speech configures the API server's synthesis service.
type Speech struct {
	EngineURL    string
	OutputDir    string
	PublicURL    string
	DefaultVoice string
}

// NewTTSService creates the synthesis service. Without an engine URL the
// service still serves and deletes stored files.
func NewTTSService(opts Speech, log *slog.Logger) (*tts.Service, error) {
	store, err := tts.NewStore(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating audio store: %w", err)
	}

	var engine tts.Engine
	if opts.EngineURL != "" {
		engine = tts.NewHTTPEngine(opts.EngineURL)
		log.Info("speech synthesis enabled", "engine", opts.EngineURL, "output_dir", store.Dir())
	} else {
		log.Info("speech synthesis disabled, no engine configured")
	}

	return tts.NewService(tts.ServiceConfig{
		Engine:       engine,
		Store:        store,
		PublicURL:    opts.PublicURL,
		DefaultVoice: opts.DefaultVoice,
		Logger:       log,
	}), nil
}
