package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/eventrag/internal/adapters/driven/storage/uploads"
	"github.com/custodia-labs/eventrag/internal/adapters/driving/rest"
	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/core/services"
	"github.com/custodia-labs/eventrag/internal/logger"
)

// portSearchRange is how many ports above the configured one --auto-port tries.
const portSearchRange = 100

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API under /rag.

Routes:
  POST   /rag/ingest              ingest files already on the server
  POST   /rag/ingest/upload       upload and ingest CSV files
  POST   /rag/chat                ask a question
  GET    /rag/conversations       list conversations
  GET    /rag/conversations/:id   show a conversation
  DELETE /rag/conversations/:id   forget a conversation
  GET    /rag/ingestions          recent ingestion runs
  GET    /rag/health              engine status

The port defaults to server.port. Logs are written as JSON lines.`,
	Args:        cobra.NoArgs,
	Annotations: engineAnnotation(),
	RunE:        runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "interface to listen on (empty = all)")
	serveCmd.Flags().IntP("port", "p", 0, "port to listen on (0 = server.port)")
	serveCmd.Flags().Bool("auto-port", false, "use the next free port if the chosen one is taken")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")
	autoPort, _ := cmd.Flags().GetBool("auto-port")

	if port == 0 {
		port = engine.Settings.Server.Port
	}
	if port == 0 {
		port = domain.DefaultPort
	}
	if autoPort {
		free, err := services.FindAvailablePort(host, port, port+portSearchRange)
		if err != nil {
			return err
		}
		port = free
	}

	logger.SetJSON(true)
	defer logger.SetJSON(false)

	server, err := rest.NewServer(rest.Ports{
		Chat:   engine.Chat,
		Ingest: engine.Ingest,
	}, uploads.NewStore(engine.Settings.Server.UploadDir))
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	fmt.Fprintf(cmd.OutOrStdout(), "HTTP API listening on http://%s/rag\n", displayAddr(host, port))
	return server.Run(cmd.Context(), addr)
}

func displayAddr(host string, port int) string {
	if host == "" {
		host = "localhost"
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
