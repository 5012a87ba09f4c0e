package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/expenses/internal/config"
	"github.com/cleared-dev/expenses/internal/gitops"
)

// ConfigFile is the config filename init writes and export reads by default.
const ConfigFile = "expenses.yaml"

func newInitCommand() *cobra.Command {
	var accountID string
	var withGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a default expenses.yaml and create the output folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, accountID, withGit)
		},
	}

	cmd.Flags().StringVar(&accountID, "account-id", "", "Monzo account ID to write into the config")
	cmd.Flags().BoolVar(&withGit, "git", false, "initialize a git repository and enable auto-commit")

	return cmd
}

func runInit(out io.Writer, dir, accountID string, withGit bool) error {
	cfgPath := filepath.Join(dir, ConfigFile)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", cfgPath, err)
	}

	cfg := config.Default()
	cfg.Monzo.AccountID = accountID
	cfg.Git.AutoCommit = withGit

	outDir := filepath.Join(dir, cfg.Output.Folder)
	if err := os.MkdirAll(filepath.Join(outDir, "logs"), 0o755); err != nil {
		return fmt.Errorf("creating output folder: %w", err)
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}

	// The token belongs in the environment or .env, never in git.
	gitignore := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(gitignore); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(gitignore, []byte(".env\n"), 0o644); err != nil {
			return fmt.Errorf("writing .gitignore: %w", err)
		}
	}

	if withGit && !gitops.IsRepo(dir) {
		if err := gitops.Init(dir); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Initialized expenses project at %s\n", dir)
	fmt.Fprintf(out, "Set %s (and %s) in the environment or %s before running export.\n",
		config.EnvToken, config.EnvAccountID, filepath.Join(dir, ".env"))
	return nil
}
