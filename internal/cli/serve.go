package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/geerteltink/mezzio-skeleton/internal/preview"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Preview the project's home page",
	Long: `Serve the home page the installed project would render.

The preview reads composer.json and config/config.php to find the installed
container, router and template engine. It answers with HTML when a template
engine is installed and JSON otherwise. Stop it with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, settings, err := newEngine()
		if err != nil {
			return err
		}
		root, err := projectRoot()
		if err != nil {
			return err
		}

		addr := settings.PreviewAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		server := preview.NewServer(preview.NewHandler(root, eng.Catalog()), preview.Config{Addr: addr})
		return server.ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: $MEZZIO_INSTALLER_ADDR or 127.0.0.1:8080)")
}
