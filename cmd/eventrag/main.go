// Command eventrag answers questions about an events CSV and a guests CSV.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/eventrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/eventrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/eventrag/internal/adapters/driven/lexical/bleve"
	"github.com/custodia-labs/eventrag/internal/adapters/driven/records/csvfile"
	"github.com/custodia-labs/eventrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/eventrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/eventrag/internal/adapters/driven/vector/chromem"
	"github.com/custodia-labs/eventrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/eventrag/internal/core/ports/driven"
	"github.com/custodia-labs/eventrag/internal/core/services"
	"github.com/custodia-labs/eventrag/internal/logger"
	"github.com/custodia-labs/eventrag/internal/postprocessors"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("loading .env: %v", err)
	}

	configStore, err := file.NewConfigStore(os.Getenv("EVENTRAG_HOME"))
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	cli.SetVersion(version)
	cli.SetSettingsService(settingsService)
	cli.SetEngineBuilder(func(ctx context.Context, opts cli.EngineOptions) (*cli.Engine, error) {
		return buildEngine(ctx, settingsService, opts)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return cli.Execute(ctx)
}

// buildEngine wires stores, AI clients and services from current settings.
func buildEngine(ctx context.Context, settingsService *services.SettingsService, opts cli.EngineOptions) (*cli.Engine, error) {
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	home, err := eventragHome()
	if err != nil {
		return nil, err
	}
	switch {
	case opts.InMemory:
		settings.Vector.Dir = ""
	case settings.Vector.Dir == "":
		settings.Vector.Dir = filepath.Join(home, "vectors")
	}

	aiServices, err := ai.Init(ctx, settings, true)
	if err != nil {
		return nil, err
	}

	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	closers = append(closers, func() error { aiServices.Close(); return nil })

	fail := func(err error) (*cli.Engine, error) {
		_ = closeAll()
		return nil, err
	}

	vectors, err := chromem.New(settings.Vector.Dir, settings.Vector.Collection)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, vectors.Close)

	records, err := openRecordStore(home, opts)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, records.Close)

	pipeline, err := postprocessors.NewDefaultPipeline(settings.Ingest)
	if err != nil {
		return fail(err)
	}

	prompts, err := file.NewPromptStore(filepath.Join(home, "prompts"), services.DefaultPrompts())
	if err != nil {
		return fail(err)
	}

	lexical := services.NewLexicalIndex(bleve.NewEngine(), records, settings.Retrieval.LexicalLimit)
	closers = append(closers, lexical.Close)

	rewriter := services.NewRewriter(aiServices.LLM, settings.LLM.Temperature)
	rewriter.SetPromptStore(prompts)
	generator := services.NewGenerator(aiServices.LLM, settings.LLM.Temperature)
	generator.SetPromptStore(prompts)
	retriever := services.NewHybridRetriever(aiServices.Embedding, vectors, lexical, settings.Retrieval)

	chat := services.NewChatService(
		services.NewQueryEngine(rewriter, retriever, generator),
		memory.NewSessionStore(),
		vectors,
		lexical,
	)
	chat.SetModels(aiServices.Embedding, aiServices.LLM, settings.Vector.Collection)

	ingest := services.NewIngestService(
		csvfile.New(),
		records,
		pipeline,
		services.NewVectorWriter(aiServices.Embedding, vectors, settings.Ingest.BatchSize),
		vectors,
		lexical,
		settings.Ingest.WorkingRoot,
	)

	return &cli.Engine{
		Chat:     chat,
		Ingest:   ingest,
		Settings: *settings,
		Close:    closeAll,
	}, nil
}

// openRecordStore opens the SQLite store under home, or a memory store
// when opts.InMemory is set.
func openRecordStore(home string, opts cli.EngineOptions) (driven.RecordStore, error) {
	if opts.InMemory {
		logger.Info("Using in-memory vectors and records; nothing will be persisted")
		return memory.NewRecordStore(), nil
	}
	store, err := sqlite.NewStore(filepath.Join(home, "data"))
	if err != nil {
		return nil, fmt.Errorf("opening record store: %w", err)
	}
	return store, nil
}

// eventragHome is $EVENTRAG_HOME or ~/.eventrag.
func eventragHome() (string, error) {
	if dir := os.Getenv("EVENTRAG_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".eventrag"), nil
}
