package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/eventrag/internal/adapters/driven/storage/uploads"
	"github.com/custodia-labs/eventrag/internal/adapters/driving/watch"
	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/core/services"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest events and guests CSV files",
	Long: `Ingest an events CSV and a guests CSV, or a single generic CSV.

Relative paths resolve against ingest.working_root, or the current
directory when it is unset. Documents are upserted by a deterministic
ID, so re-ingesting the same files replaces them. Use --reset to clear
the collection first.

With --watch the command stays running and re-ingests whenever the
files change, until interrupted.

Examples:
  eventrag ingest --events events.csv --guests guests.csv
  eventrag ingest --file attendees.csv --reset
  eventrag ingest --events events.csv --guests guests.csv --watch`,
	Args:        cobra.NoArgs,
	Annotations: engineAnnotation(),
	RunE:        runIngest,
}

var ingestUploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Copy CSV files into the upload directory and ingest them",
	Long: `Copy CSV files into server.upload_dir under generated names, then
ingest the copies. Give either one generic CSV or --events and --guests.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: engineAnnotation(),
	RunE:        runIngestUpload,
}

var ingestHistoryCmd = &cobra.Command{
	Use:         "history",
	Short:       "List recent ingestion runs",
	Args:        cobra.NoArgs,
	Annotations: engineAnnotation(),
	RunE:        runIngestHistory,
}

func init() {
	for _, c := range []*cobra.Command{ingestCmd, ingestUploadCmd} {
		c.Flags().String("events", "", "path to the events CSV")
		c.Flags().String("guests", "", "path to the guests CSV")
		c.Flags().Bool("reset", false, "clear the collection before ingesting")
	}
	ingestCmd.Flags().StringP("file", "f", "", "path to a single generic CSV")
	ingestCmd.Flags().Bool("watch", false, "re-ingest when the files change")
	ingestHistoryCmd.Flags().IntP("limit", "n", 20, "number of runs to show")

	ingestCmd.AddCommand(ingestUploadCmd)
	ingestCmd.AddCommand(ingestHistoryCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	file, _ := cmd.Flags().GetString("file")
	events, _ := cmd.Flags().GetString("events")
	guests, _ := cmd.Flags().GetString("guests")
	reset, _ := cmd.Flags().GetBool("reset")
	watchFiles, _ := cmd.Flags().GetBool("watch")

	req, err := ingestRequest(file, events, guests, reset)
	if err != nil {
		return err
	}
	if err := doIngest(cmd, req); err != nil {
		return err
	}
	if !watchFiles {
		return nil
	}
	return watchIngest(cmd, req)
}

// watchIngest blocks re-ingesting req until the command context ends.
func watchIngest(cmd *cobra.Command, req domain.IngestRequest) error {
	root := engine.Settings.Ingest.WorkingRoot
	for _, p := range []*string{&req.FilePath, &req.EventsPath, &req.GuestsPath} {
		if *p == "" {
			continue
		}
		resolved, err := services.ResolvePath(root, *p)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		*p = resolved
	}

	w, err := watch.New(engine.Ingest, req, watch.WithResultFunc(func(r *domain.IngestResult, err error) {
		if r != nil {
			printIngestResult(cmd.OutOrStdout(), r, 0)
		}
		if err != nil {
			cmd.PrintErrf("Re-ingestion failed: %v\n", err)
		}
	}))
	if err != nil {
		return err
	}
	cmd.Println("Watching for changes. Press Ctrl+C to stop.")
	return w.Run(cmd.Context())
}

func runIngestUpload(cmd *cobra.Command, args []string) error {
	events, _ := cmd.Flags().GetString("events")
	guests, _ := cmd.Flags().GetString("guests")
	reset, _ := cmd.Flags().GetBool("reset")

	var file string
	if len(args) == 1 {
		file = args[0]
	}
	req, err := ingestRequest(file, events, guests, reset)
	if err != nil {
		return err
	}

	store := uploads.NewStore(engine.Settings.Server.UploadDir)
	for _, p := range []*string{&req.FilePath, &req.EventsPath, &req.GuestsPath} {
		if *p == "" {
			continue
		}
		saved, err := store.SaveFile(*p)
		if err != nil {
			return err
		}
		cmd.Printf("Uploaded %s -> %s\n", *p, saved)
		*p = saved
	}
	return doIngest(cmd, req)
}

func runIngestHistory(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	runs, err := engine.Ingest.History(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("listing ingestion runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No ingestion runs yet.")
		return nil
	}
	printRuns(cmd.OutOrStdout(), runs)
	return nil
}

// ingestRequest validates the flag combination.
func ingestRequest(file, events, guests string, reset bool) (domain.IngestRequest, error) {
	req := domain.IngestRequest{FilePath: file, EventsPath: events, GuestsPath: guests, Reset: reset}
	switch {
	case file != "" && (events != "" || guests != ""):
		return req, fmt.Errorf("%w: use either a single file or --events with --guests", domain.ErrInvalidInput)
	case file == "" && (events == "" || guests == ""):
		return req, fmt.Errorf("%w: both --events and --guests are required", domain.ErrInvalidInput)
	}
	return req, nil
}

func doIngest(cmd *cobra.Command, req domain.IngestRequest) error {
	ctx, cancel := withTimeout(cmd.Context())
	defer cancel()

	started := time.Now()
	var (
		result *domain.IngestResult
		err    error
	)
	if req.FilePath != "" {
		result, err = engine.Ingest.IngestCSV(ctx, req)
	} else {
		result, err = engine.Ingest.IngestDual(ctx, req)
	}
	if result != nil {
		printIngestResult(cmd.OutOrStdout(), result, time.Since(started))
	}
	if err != nil {
		if errors.Is(err, domain.ErrPartialIngestion) {
			return fmt.Errorf("ingestion incomplete: %w", err)
		}
		return err
	}
	return nil
}

func printIngestResult(w io.Writer, r *domain.IngestResult, took time.Duration) {
	fmt.Fprintln(w, r.Message)
	fmt.Fprintf(w, "  Documents: %d\n", r.ProcessedDocs)
	fmt.Fprintf(w, "  Chunks:    %d\n", r.Chunks)
	fmt.Fprintf(w, "  Success:   %t\n", r.Success)
	if took > 0 {
		fmt.Fprintf(w, "  Took:      %s\n", took.Round(time.Millisecond))
	}
}

func printRuns(w io.Writer, runs []domain.IngestRun) {
	for _, r := range runs {
		status := "ok"
		if !r.Success {
			status = "failed"
		}
		fmt.Fprintf(w, "%s  %-4s  %-6s  docs=%d chunks=%d batches=%d/%d warnings=%d\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Kind, status, r.ProcessedDocs, r.Chunks,
			r.CompletedBatches, r.TotalBatches, r.Diagnostics)
		if r.Message != "" {
			fmt.Fprintf(w, "    %s\n", r.Message)
		}
	}
}
