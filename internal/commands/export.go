package commands

import (
	"fmt"
	"path/filepath"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/expenses/internal/config"
	"github.com/cleared-dev/expenses/internal/logger"
	"github.com/cleared-dev/expenses/internal/pipeline"
)

type exportOptions struct {
	configPath string
	envFile    string
	from       string
	to         string
	output     string
	category   string
	noReceipts bool
	verbose    bool
	logFormat  string
}

func newExportCommand() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fetch expenses, download receipts and write reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", ConfigFile, "path to expenses.yaml")
	f.StringVar(&opts.envFile, "env-file", "", "dotenv file to load (default: .env next to the config)")
	f.StringVar(&opts.from, "from", "", "first day to export, YYYY-MM-DD (inclusive)")
	f.StringVar(&opts.to, "to", "", "last day to export, YYYY-MM-DD (inclusive)")
	f.StringVar(&opts.output, "output", "", "output folder")
	f.StringVar(&opts.category, "category", "", "transaction category treated as an expense")
	f.BoolVar(&opts.noReceipts, "no-receipts", false, "skip downloading receipts")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	f.StringVar(&opts.logFormat, "log-format", logger.FormatConsole, "log output format: console or json")

	return cmd
}

func runExport(cmd *cobra.Command, opts exportOptions) error {
	log, err := logger.ForFormat(opts.logFormat, cmd.ErrOrStderr(), opts.verbose)
	if err != nil {
		return err
	}

	cfg, err := loadExportConfig(opts)
	if err != nil {
		return err
	}

	ctx := logger.WithContext(cmd.Context(), log)

	_, err = pipeline.Run(ctx, cfg, pipeline.Deps{Out: cmd.OutOrStdout()})
	return err
}

// loadExportConfig reads the config file, then applies the dotenv file, the
// environment and finally the command-line flags. A relative output folder
// is resolved against the config file's directory.
func loadExportConfig(opts exportOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	cfgDir := filepath.Dir(opts.configPath)

	envFile := opts.envFile
	if envFile == "" {
		envFile = filepath.Join(cfgDir, ".env")
	}
	if err := config.ApplyEnv(cfg, envFile); err != nil {
		return nil, err
	}

	if opts.from != "" {
		d, err := civil.ParseDate(opts.from)
		if err != nil {
			return nil, fmt.Errorf("parsing --from: %w", err)
		}
		cfg.StartDate = d
	}
	if opts.to != "" {
		d, err := civil.ParseDate(opts.to)
		if err != nil {
			return nil, fmt.Errorf("parsing --to: %w", err)
		}
		cfg.EndDate = d
	}
	if opts.category != "" {
		cfg.ExpenseCategory = opts.category
	}
	if opts.noReceipts {
		cfg.DownloadReceipts = false
	}

	if opts.output != "" {
		abs, err := filepath.Abs(opts.output)
		if err != nil {
			return nil, fmt.Errorf("resolving path: %w", err)
		}
		cfg.Output.Folder = abs
	} else if cfg.Output.Folder != "" && !filepath.IsAbs(cfg.Output.Folder) {
		cfg.Output.Folder = filepath.Join(cfgDir, cfg.Output.Folder)
	}
	return cfg, nil
}
