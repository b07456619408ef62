// Package cli provides the eventrag command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/core/ports/driving"
	"github.com/custodia-labs/eventrag/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

// annotationEngine marks commands that need the query and ingest engine.
const annotationEngine = "engine"

// Engine holds the services built at startup for engine commands.
type Engine struct {
	Chat     driving.ChatService
	Ingest   driving.IngestService
	Settings domain.AppSettings

	// Close releases stores and clients. May be nil.
	Close func() error
}

// EngineOptions are the command line choices that shape the engine.
type EngineOptions struct {
	// InMemory keeps vectors and records in memory; nothing is written to disk.
	InMemory bool
}

// EngineBuilder constructs the engine from current settings.
type EngineBuilder func(ctx context.Context, opts EngineOptions) (*Engine, error)

var (
	settingsService driving.SettingsService
	buildEngine     EngineBuilder
	engine          *Engine

	verbose  bool
	timeout  time.Duration
	inMemory bool
)

var rootCmd = &cobra.Command{
	Use:   "eventrag",
	Short: "Ask questions about your events and guests",
	Long: `eventrag ingests an events CSV and a guests CSV and answers questions
about them, combining semantic search with keyword search and an LLM.

Configuration lives in ~/.eventrag/config.toml. API keys may also come
from the environment or a .env file.`,
	SilenceUsage:       true,
	PersistentPreRunE:  preRun,
	PersistentPostRunE: postRun,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "deadline for ingest and ask commands (0 = none)")
	rootCmd.PersistentFlags().BoolVar(&inMemory, "in-memory", false, "keep vectors and guest records in memory for this process only")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetSettingsService sets the settings service used by settings commands.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetEngineBuilder sets the function that builds the engine for commands
// that query or ingest.
func SetEngineBuilder(b EngineBuilder) {
	buildEngine = b
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func preRun(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[annotationEngine] != "true" || engine != nil {
		return nil
	}
	if buildEngine == nil {
		return errors.New("engine not configured")
	}
	e, err := buildEngine(cmd.Context(), EngineOptions{InMemory: inMemory})
	if err != nil {
		return err
	}
	engine = e
	return nil
}

func postRun(_ *cobra.Command, _ []string) error {
	if engine == nil || engine.Close == nil {
		return nil
	}
	err := engine.Close()
	engine = nil
	if err != nil {
		return fmt.Errorf("closing engine: %w", err)
	}
	return nil
}

// withTimeout applies --timeout to ctx.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

func engineAnnotation() map[string]string {
	return map[string]string{annotationEngine: "true"}
}
