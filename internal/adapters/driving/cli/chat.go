package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/eventrag/internal/adapters/driving/tui"
	"github.com/custodia-labs/eventrag/internal/core/domain"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Start an interactive conversation about the ingested events and guests.

On a terminal this opens a full-screen chat. Otherwise, or with --plain,
questions are read line by line from stdin and answers are written to
stdout. Type /clear to start a new conversation and /quit to leave.

Controls (full-screen):
  enter   - Ask
  ctrl+s  - Show sources of the last answer
  ctrl+n  - New conversation
  ctrl+r  - Ingestion history
  ctrl+c  - Quit`,
	Args:        cobra.NoArgs,
	Annotations: engineAnnotation(),
	RunE:        runChat,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question",
	Long: `Ask a single question and print the answer with its sources.

Pass --conversation to continue a conversation started in the same
process (conversations live in memory).`,
	Args:        cobra.MinimumNArgs(1),
	Annotations: engineAnnotation(),
	RunE:        runAsk,
}

// isTerminal reports whether stdin and stdout are terminals.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func init() {
	for _, c := range []*cobra.Command{chatCmd, askCmd} {
		c.Flags().StringToString("filter", nil, "exact-match metadata filter, e.g. event_api_id=E1")
		c.Flags().String("conversation", "", "conversation ID to continue")
	}
	chatCmd.Flags().Bool("plain", false, "read questions line by line instead of opening the full-screen chat")
	askCmd.Flags().Bool("sources", true, "print the sources of the answer")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	filter, _ := cmd.Flags().GetStringToString("filter")
	conversation, _ := cmd.Flags().GetString("conversation")
	plain, _ := cmd.Flags().GetBool("plain")

	if !plain && isTerminal() {
		app, err := tui.NewApp(&tui.Ports{
			Chat:           engine.Chat,
			Ingest:         engine.Ingest,
			Filter:         domain.RetrievalFilter(filter),
			ConversationID: conversation,
		})
		if err != nil {
			return fmt.Errorf("failed to create TUI: %w", err)
		}
		if err := app.WithContext(cmd.Context()).Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	}

	return chatLines(cmd, cmd.InOrStdin(), domain.RetrievalFilter(filter), conversation)
}

// chatLines answers one question per input line until EOF or /quit.
func chatLines(cmd *cobra.Command, in io.Reader, filter domain.RetrievalFilter, conversation string) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(in)

	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		question := strings.TrimSpace(scanner.Text())
		switch question {
		case "":
			fmt.Fprint(out, "> ")
			continue
		case "/quit", "/exit":
			return nil
		case "/clear":
			if conversation != "" {
				engine.Chat.Clear(conversation)
			}
			conversation = ""
			fmt.Fprintln(out, "Started a new conversation.")
			fmt.Fprint(out, "> ")
			continue
		}

		result, err := ask(cmd, domain.QueryRequest{
			ConversationID: conversation,
			Question:       question,
			Filter:         filter,
		})
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		} else {
			conversation = result.ConversationID
			fmt.Fprintln(out, result.Answer)
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

func runAsk(cmd *cobra.Command, args []string) error {
	filter, _ := cmd.Flags().GetStringToString("filter")
	conversation, _ := cmd.Flags().GetString("conversation")
	showSources, _ := cmd.Flags().GetBool("sources")

	result, err := ask(cmd, domain.QueryRequest{
		ConversationID: conversation,
		Question:       strings.Join(args, " "),
		Filter:         domain.RetrievalFilter(filter),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, result.Answer)
	if showSources && len(result.Sources) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Sources (%d):\n", len(result.Sources))
		for i, src := range result.Sources {
			fmt.Fprintf(out, "  %d. %s\n", i+1, sourceSummary(src))
		}
	}
	fmt.Fprintf(out, "\nConversation: %s\n", result.ConversationID)
	return nil
}

func ask(cmd *cobra.Command, req domain.QueryRequest) (*domain.QueryResult, error) {
	ctx, cancel := withTimeout(cmd.Context())
	defer cancel()
	return engine.Chat.Query(ctx, req)
}

// sourceSummary is the first line of a source with its event reference.
func sourceSummary(src domain.SourceDocument) string {
	line, _, _ := strings.Cut(src.Content, "\n")
	if id, ok := src.Metadata[domain.KeyEventAPIID].(string); ok && id != "" {
		return fmt.Sprintf("%s [%s]", line, id)
	}
	return line
}
