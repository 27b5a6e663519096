package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries state shared by subcommands once the root pre-run has loaded
// configuration.
type app struct {
	cfg    *config.Config
	logger *applog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "fintrackctl",
		Short: "Administer a fintrack deployment",
		Long: `fintrackctl applies schema migrations and inspects stored data for a
fintrack deployment. It reads the same environment variables (and .env
file) as the server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			a.cfg = config.Load()
			a.logger = applog.New(applog.Config{
				Level:     applog.ParseLevel(a.cfg.LogLevel),
				Component: applog.ComponentCLI,
				Format:    a.cfg.LogFormat,
				Output:    cmd.ErrOrStderr(),
			})
			return a.cfg.Validate()
		},
	}

	root.AddCommand(a.migrateCmd(), a.reportCmd(), a.auditCmd())
	return root
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := backend.Migrate(backend.FromAppConfig(a.cfg)); err != nil {
				return fmt.Errorf("migrate %s: %w", a.cfg.DataBackend, err)
			}
			a.logger.Info("Migrations applied", applog.FieldOperation, applog.OpMigrate, "backend", a.cfg.DataBackend)
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", a.cfg.DataBackend)
			return nil
		},
	}
}

func (a *app) reportCmd() *cobra.Command {
	var owner, start, end string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print an owner's spending report as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(store storage.Store) error {
				report, err := services.NewReportService(store, nil).Generate(cmd.Context(), owner, start, end)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), report)
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner id (required)")
	cmd.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&end, "end", "", "last day, YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func (a *app) auditCmd() *cobra.Command {
	var owner string
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Print an owner's most recent transaction events",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			return a.withStore(cmd.Context(), func(store storage.Store) error {
				events, err := store.EventsByOwner(cmd.Context(), owner, limit)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				for _, e := range events {
					fmt.Fprintf(w, "%s\t%-7s\t%s\n", e.OccurredAt, e.Kind, e.TransactionID)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner id (required)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of events")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func (a *app) withStore(ctx context.Context, fn func(storage.Store) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := backend.NewFactory(a.logger.Logger).CreateBackend(ctx, backend.FromAppConfig(a.cfg))
	if err != nil {
		return err
	}
	defer res.Cleanup()
	return fn(res.Store)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
