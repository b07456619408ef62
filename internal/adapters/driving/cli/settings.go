package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change settings stored in ~/.eventrag/config.toml.

Environment variables (OPENAI_API_KEY, GEMINI_API_KEY, ANTHROPIC_API_KEY,
OPENAI_MODEL, OPENAI_EMBEDDING_MODEL, EVENTRAG_COLLECTION, PORT) override
the file.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a single setting",
	Long: `Set a single setting by its dot-notation key, for example:

  eventrag settings set llm.provider anthropic
  eventrag settings set retrieval.k 8

Run 'eventrag settings keys' to list every key.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure the embedding provider interactively",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errors.New("settings service not configured")
		}
		return configureProvider(cmd, bufio.NewReader(cmd.InOrStdin()), embeddingTarget)
	},
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure the LLM provider interactively",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errors.New("settings service not configured")
		}
		return configureProvider(cmd, bufio.NewReader(cmd.InOrStdin()), llmTarget)
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())
	cmd.Println()

	cmd.Println("[LLM]")
	printProvider(cmd, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey, settings.LLM.IsConfigured())
	cmd.Printf("  Temperature: %g\n", settings.LLM.Temperature)
	cmd.Println()

	cmd.Println("[Vector]")
	cmd.Printf("  Collection: %s\n", settings.Vector.Collection)
	cmd.Printf("  Directory: %s\n", orDefault(settings.Vector.Dir))
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  K: %d (fetch %d, lambda %g)\n", settings.Retrieval.K, settings.Retrieval.FetchK, settings.Retrieval.Lambda)
	cmd.Printf("  Limits: lexical %d, vector %d\n", settings.Retrieval.LexicalLimit, settings.Retrieval.VectorLimit)
	cmd.Println()

	cmd.Println("[Ingest]")
	cmd.Printf("  Chunks: %d chars, %d overlap\n", settings.Ingest.ChunkSize, settings.Ingest.ChunkOverlap)
	cmd.Printf("  Batch size: %d\n", settings.Ingest.BatchSize)
	cmd.Printf("  Working root: %s\n", orDefault(settings.Ingest.WorkingRoot))
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Port: %d\n", settings.Server.Port)
	cmd.Printf("  Upload directory: %s\n", orDefault(settings.Server.UploadDir))
	cmd.Println()

	cmd.Println("[Cache]")
	if settings.Cache.Size > 0 && settings.Cache.TTL > 0 {
		cmd.Printf("  %d embeddings for %s\n", settings.Cache.Size, settings.Cache.TTL)
	} else {
		cmd.Println("  Disabled")
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'eventrag settings llm' or 'eventrag settings embedding' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func printProvider(cmd *cobra.Command, p domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	cmd.Printf("  Provider: %s\n", p.Description())
	cmd.Printf("  Model: %s\n", model)
	if baseURL != "" {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if p.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func orDefault(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return err
	}

	shown := args[1]
	if strings.HasSuffix(args[0], ".api_key") {
		shown = maskAPIKey(shown)
	}
	cmd.Printf("%s = %s\n", args[0], shown)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, k := range settingsService.Keys() {
		cmd.Println(k)
	}
	return nil
}

// providerTarget describes one of the two configurable providers.
type providerTarget struct {
	name      string
	prefix    string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
	validate  func() error
}

var (
	embeddingTarget = providerTarget{
		name:      "Embedding",
		prefix:    "embedding",
		providers: domain.AllEmbeddingProviders(),
		models:    domain.DefaultEmbeddingModels(),
		validate:  func() error { return settingsService.ValidateEmbeddingConfig() },
	}
	llmTarget = providerTarget{
		name:      "LLM",
		prefix:    "llm",
		providers: domain.AllLLMProviders(),
		models:    domain.DefaultLLMModels(),
		validate:  func() error { return settingsService.ValidateLLMConfig() },
	}
)

func configureProvider(cmd *cobra.Command, reader *bufio.Reader, t providerTarget) error {
	cmd.Printf("Select %s Provider\n", t.name)
	for i, p := range t.providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(t.providers), 1)
	selected := t.providers[idx-1]

	defaultModel := t.models[selected]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	values := map[string]string{
		t.prefix + ".provider": string(selected),
		t.prefix + ".model":    model,
	}
	if selected.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey := readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
		values[t.prefix+".api_key"] = apiKey
	}

	for _, k := range []string{t.prefix + ".provider", t.prefix + ".model", t.prefix + ".api_key"} {
		v, ok := values[k]
		if !ok {
			continue
		}
		if err := settingsService.Set(k, v); err != nil {
			return fmt.Errorf("failed to configure %s provider: %w", t.prefix, err)
		}
	}

	cmd.Print("Validating configuration... ")
	if err := t.validate(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", t.prefix, err)
	}
	cmd.Println("OK")

	cmd.Printf("%s provider configured: %s (%s)\n", t.name, selected.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo on a terminal and falls back to a plain line.
func readPassword(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
