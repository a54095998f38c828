package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the annotation HTTP API",
	Long: `Serve the annotation HTTP API from the local store.

Other marginalia clients reach it with remote.base_url set to this
server and --remote.

Routes:
  GET    /api/pageAnnotations?documentId=&page=
  POST   /api/highlights
  DELETE /api/highlights/{id}
  POST   /api/memos
  PATCH  /api/memos/{id}
  DELETE /api/memos/{id}
  GET    /api/documents/...`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := requireAnnotations(); err != nil {
		return err
	}
	settings := appSettings()

	server, err := httpapi.NewServer(annotationService, httpapi.Options{
		Documents:   documentService,
		Rasteriser:  rasteriser,
		RenderWidth: float64(settings.Viewer.RenderWidth),
	})
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = settings.ServerAddr
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Annotation API listening on http://%s\n", addr)
	return server.Run(ctx, addr)
}

// commandContext returns the command's context, or Background when the
// command was run without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
