// Package cli implements the catalog command line client
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/juju/clock"
	"github.com/spf13/cobra"

	"github.com/wonny/quotecatalog/internal/app"
	"github.com/wonny/quotecatalog/internal/pkg/config"
	"github.com/wonny/quotecatalog/internal/pkg/logger"
)

const (
	serviceName = "quotecatalog-cli"

	outputTable = "table"
	outputJSON  = "json"
)

// Options customises how commands load config and open the catalog
type Options struct {
	Load    func() (*config.Config, error)
	Open    func(ctx context.Context, cfg *config.Config, logCfg logger.Config) (*app.App, error)
	Clock   clock.Clock
	Version string
}

type cli struct {
	opts Options

	// 공통 플래그
	cfgFile string
	output  string
	verbose bool

	cfg    *config.Config
	logCfg logger.Config
}

// NewRootCmd builds the command tree
func NewRootCmd(opts Options) *cobra.Command {
	if opts.Load == nil {
		opts.Load = config.Load
	}
	if opts.Open == nil {
		opts.Open = app.New
	}
	if opts.Clock == nil {
		opts.Clock = clock.WallClock
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	c := &cli{opts: opts}

	rootCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Quote Catalog - CLI",
		Long: `Quote Catalog - CLI

Commands:
    serve                                   - REST API server
    ticker get|list|add|edit|delete         - manage tickers
    quote  get|list|add|edit|delete         - manage quotes
`,
		SilenceUsage:      true,
		PersistentPreRunE: c.initConfig,
	}

	rootCmd.PersistentFlags().StringVar(&c.cfgFile, "config", "", "YAML config file (overrides CONFIG_FILE)")
	rootCmd.PersistentFlags().StringVarP(&c.output, "output", "o", outputTable, "output format: table or json")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(c.serveCmd())
	rootCmd.AddCommand(c.tickerCmd())
	rootCmd.AddCommand(c.quoteCmd())

	return rootCmd
}

// Execute runs the root command
func Execute(ctx context.Context, version string) error {
	return NewRootCmd(Options{Version: version}).ExecuteContext(ctx)
}

func (c *cli) initConfig(cmd *cobra.Command, args []string) error {
	if c.output != outputTable && c.output != outputJSON {
		return fmt.Errorf("unknown output format %q", c.output)
	}

	// .env 파일이 없어도 계속 진행
	_ = godotenv.Load()

	if c.cfgFile != "" {
		if err := os.Setenv("CONFIG_FILE", c.cfgFile); err != nil {
			return fmt.Errorf("failed to set CONFIG_FILE: %w", err)
		}
	}

	cfg, err := c.opts.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	c.cfg = cfg

	c.logCfg = logger.FromConfig(cfg.Logging, serviceName, c.opts.Version)
	if !c.verbose && cmd.Name() != "serve" {
		c.logCfg.Level = "warn"
	}
	if err := logger.Init(c.logCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// withApp opens the catalog for one command and closes it afterwards
func (c *cli) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	a, err := c.opts.Open(cmd.Context(), c.cfg, c.logCfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), c.cfg.Server.OperationTimeout)
	defer cancel()

	return explain(fn(ctx, a))
}
