// Package app wires the services shared by the binaries.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MrJamesThe3rd/muniledger/internal/blob"
	"github.com/MrJamesThe3rd/muniledger/internal/config"
	"github.com/MrJamesThe3rd/muniledger/internal/database"
	"github.com/MrJamesThe3rd/muniledger/internal/document"
	documentStore "github.com/MrJamesThe3rd/muniledger/internal/document/store"
	"github.com/MrJamesThe3rd/muniledger/internal/eventlog"
	"github.com/MrJamesThe3rd/muniledger/internal/extract"
	"github.com/MrJamesThe3rd/muniledger/internal/ingest"
	ingestStore "github.com/MrJamesThe3rd/muniledger/internal/ingest/store"
	"github.com/MrJamesThe3rd/muniledger/internal/parser"
	"github.com/MrJamesThe3rd/muniledger/internal/staging"
	stagingStore "github.com/MrJamesThe3rd/muniledger/internal/staging/store"
)

type App struct {
	Documents *document.Service
	Ingest    *ingest.Service
	Staging   *staging.Service

	db     *sql.DB
	events *eventlog.Log
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	if cfg.DB.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	files, err := blob.NewLocal(cfg.Storage.Root)
	if err != nil {
		db.Close()
		return nil, err
	}

	events, err := eventlog.Open(cfg.Ingest.EventLog)
	if err != nil {
		db.Close()
		return nil, err
	}

	// a nil *extract.Extractor must not end up in the interface
	var extractor ingest.Extractor

	if cfg.LLMEnabled() {
		transport, err := extract.NewGemini(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
		if err != nil {
			db.Close()
			events.Close()

			return nil, fmt.Errorf("creating model client: %w", err)
		}

		extractor = extract.New(transport, extract.Config{
			MaxRetries:     cfg.Ingest.MaxRetries,
			RetrySleep:     cfg.Ingest.RetrySleep,
			GoalsThreshold: cfg.Ingest.GoalsThreshold,
		})
	} else {
		slog.Warn("GEMINI_API_KEY not set, only the parsers strategy is available")
	}

	docs := document.NewService(documentStore.New(db), files, cfg.Storage.UploadMaxBytes)

	return &App{
		Documents: docs,
		Ingest: ingest.NewService(ingestStore.New(db), docs, parser.NewRegistry(), extractor, events, ingest.Config{
			StagingEnabled: cfg.Ingest.StagingEnabled,
		}),
		Staging: staging.NewService(stagingStore.New(db)),
		db:      db,
		events:  events,
	}, nil
}

func (a *App) Close() error {
	return errors.Join(a.events.Close(), a.db.Close())
}
