package cli

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"medrag/internal/adapter/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assistant over HTTP",
	Long: `Serve POST /chat, GET /healthz and GET /metrics.

POST /chat takes {"query": "...", "history": [{"role": "user", "content": "..."}]}
and returns the answer with its citations.

Examples:
  medrag serve
  medrag serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = serveAddr
	}

	a, err := buildApp(cfg, log)
	if err != nil {
		return err
	}

	if strings.HasPrefix(strings.ToLower(cfg.Logging.Mode), "prod") {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := httpapi.NewRouter(a.pipeline, a.registry, log)
	return httpapi.NewServer(cfg.Server.Addr, router, cfg.Server.ShutdownTimeout, log).Run(ctx)
}

