package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func (c *cli) serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				c.cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := c.opts.Open(ctx, c.cfg, c.logCfg)
			if err != nil {
				return err
			}
			defer a.Close()

			log.Info().
				Str("version", c.opts.Version).
				Str("port", c.cfg.Server.Port).
				Msg("🚀 Starting Quote Catalog API Server...")

			return a.Serve(ctx, c.cfg.Server, c.opts.Version)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides API_PORT)")
	return cmd
}
