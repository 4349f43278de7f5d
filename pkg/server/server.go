// Package server provides the public entry point for initializing the
// driveagent server.
//
// Usage:
//
//	srv, err := server.New(ctx)
//	http.ListenAndServe(":8080", srv.Handler)
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/driveagent/driveagent/internal/agent"
	"github.com/driveagent/driveagent/internal/api"
	"github.com/driveagent/driveagent/internal/api/handlers"
	"github.com/driveagent/driveagent/internal/config"
	"github.com/driveagent/driveagent/internal/drive"
	"github.com/driveagent/driveagent/internal/email"
	"github.com/driveagent/driveagent/internal/extract"
	"github.com/driveagent/driveagent/internal/ingest"
	"github.com/driveagent/driveagent/internal/model"
	"github.com/driveagent/driveagent/internal/scheduler"
	"github.com/driveagent/driveagent/internal/telemetry"
	"github.com/driveagent/driveagent/internal/tools"
	"github.com/driveagent/driveagent/internal/vectorstore"
	"github.com/driveagent/driveagent/pkg/contracts"
)

// Server holds the initialized driveagent runtime.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Store is the vector store façade. Exposed for composition and tests.
	Store *vectorstore.Store

	// Port is the port the server should listen on.
	Port int

	// ShutdownFunc should be called on graceful shutdown to flush telemetry,
	// stop the scheduler and release the vector backend.
	ShutdownFunc func(context.Context) error
}

// New initializes all components from environment configuration and
// returns a ready Server.
func New(ctx context.Context) (*Server, error) {
	return NewWithConfig(ctx, config.Load())
}

// NewWithConfig initializes the server with an explicit configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	telemetryShutdown, err := telemetry.Init(cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	llm := model.NewOpenAIModel(
		cfg.Model.APIKey, cfg.Model.BaseURL,
		cfg.Model.ChatModel, cfg.Model.EmbeddingModel,
		cfg.Model.Dimensions,
	)

	backend, closeBackend, err := newBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init vector backend: %w", err)
	}
	store := vectorstore.New(backend, llm, cfg.Drive.RootName, cfg.Vector.CollectionName)
	log.Info().Str("backend", cfg.Vector.Backend).Msg("✅ Vector store initialized")

	var sender contracts.EmailSender = email.Disabled{}
	if cfg.SMTP.Host != "" {
		sender, err = email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
		if err != nil {
			return nil, fmt.Errorf("init smtp sender: %w", err)
		}
		log.Info().Str("host", cfg.SMTP.Host).Msg("✅ SMTP sender initialized")
	}

	registry := tools.NewRegistry(store, sender, llm, tools.Config{
		DistanceCutoff: cfg.Agent.DistanceCutoff,
		Timeout:        time.Duration(cfg.Agent.ToolTimeoutSecs) * time.Second,
	})
	orch := agent.New(llm, registry)
	log.Info().Int("tools", len(registry.Specs())).Msg("✅ Agent orchestrator initialized")

	pipeline, sched, err := newSync(ctx, cfg, store)
	if err != nil {
		return nil, fmt.Errorf("init sync: %w", err)
	}

	h := handlers.New(orch, pipeline, store)
	router := api.NewRouter(cfg, h)

	shutdown := func(ctx context.Context) error {
		if sched != nil {
			sched.Stop()
		}
		closeBackend()
		return telemetryShutdown(ctx)
	}

	return &Server{
		Handler:      router,
		Store:        store,
		Port:         cfg.Port,
		ShutdownFunc: shutdown,
	}, nil
}

// newBackend selects the vector backend driver from configuration.
func newBackend(ctx context.Context, cfg *config.Config) (contracts.VectorBackend, func(), error) {
	switch cfg.Vector.Backend {
	case "embedded":
		return vectorstore.NewEmbeddedBackend(), func() {}, nil
	case "pgvector":
		pg, err := vectorstore.NewPgvectorBackend(ctx, cfg.Vector.PgURL, cfg.Model.Dimensions)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector backend %q", cfg.Vector.Backend)
	}
}

// newSync builds the ingestion pipeline and its cron scheduler. Both stay
// nil when Drive credentials or the root folder are not configured; the
// sync endpoints then report the missing configuration.
func newSync(ctx context.Context, cfg *config.Config, store *vectorstore.Store) (*ingest.Pipeline, *scheduler.Scheduler, error) {
	if cfg.Drive.FolderID == "" || cfg.Drive.CredentialsFile == "" {
		log.Warn().Msg("Drive sync disabled: GOOGLE_DRIVE_FOLDER_ID or GOOGLE_APPLICATION_CREDENTIALS not set")
		return nil, nil, nil
	}

	dc, err := drive.NewClient(ctx, cfg.Drive.CredentialsFile, drive.WithMaxFolders(cfg.Drive.MaxFolders))
	if err != nil {
		return nil, nil, fmt.Errorf("init drive client: %w", err)
	}

	pipeline := ingest.NewPipeline(
		dc, extract.New(), store,
		ingest.NewFileSyncCache(cfg.Sync.CachePath),
		cfg.Drive.FolderID,
		ingest.WithBatchSize(cfg.Sync.BatchSize),
	)
	log.Info().Str("folder", cfg.Drive.FolderID).Msg("✅ Ingestion pipeline initialized")

	if cfg.Sync.Cron == "" {
		return pipeline, nil, nil
	}

	sched, err := scheduler.New(cfg.Sync.Cron, pipeline)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid SYNC_CRON %q: %w", cfg.Sync.Cron, err)
	}
	sched.Start()

	return pipeline, sched, nil
}
