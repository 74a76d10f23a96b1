// Package cmd implements the depot command line.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/xraph/depot"
	"github.com/xraph/depot/auth"
	"github.com/xraph/depot/checklog"
	"github.com/xraph/depot/collection"
	"github.com/xraph/depot/config"
	mongostore "github.com/xraph/depot/store/mongo"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "depot",
	Short: "Transit data access and session authentication",
	Long: `depot manages the MongoDB collections of the transit data platform and
the users, roles and sessions that guard them.

Connection strings come from the environment variable named after each
collection (TML_INTERFACE_STOPS, ...) or from the mongo section of the
config file.`,
	SilenceUsage: true,
}

// ExecuteContext runs the root command.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, depot.ErrUnauthorized), errors.Is(err, depot.ErrForbidden):
		return 3
	case errors.Is(err, depot.ErrValidation):
		return 2
	default:
		return 1
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./depot.yaml)")
}

// runtime is the wiring shared by every command.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *collection.Registry
	store    *mongostore.Store
	provider *auth.Provider
}

func newRuntime(cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Level()}))

	reg := collection.NewRegistry(cfg,
		collection.WithConfig(cfg.Config),
		collection.WithLogger(logger),
	)
	st := mongostore.New(reg)

	// The CLI is one-shot, so the session cache would only add staleness.
	pcfg := cfg.Config
	pcfg.SessionCacheTTL = 0
	p, err := auth.NewProvider(
		auth.WithStore(st),
		auth.WithConfig(pcfg),
		auth.WithLogger(logger),
		auth.WithPlugin(checklog.NewRecorder(st)),
	)
	if err != nil {
		return nil, err
	}
	return &runtime{cfg: cfg, logger: logger, registry: reg, store: st, provider: p}, nil
}

func (r *runtime) close(ctx context.Context) {
	if err := r.store.Close(context.WithoutCancel(ctx)); err != nil {
		r.logger.Warn("close", slog.String("error", err.Error()))
	}
}

// withRuntime adapts a command body that needs the runtime.
func withRuntime(fn func(cmd *cobra.Command, args []string, rt *runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.close(cmd.Context())
		return fn(cmd, args, rt)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// tokenFlag returns the --token flag value or DEPOT_TOKEN.
func tokenFlag(cmd *cobra.Command) (string, error) {
	tok, _ := cmd.Flags().GetString("token")
	if tok == "" {
		tok = os.Getenv("DEPOT_TOKEN")
	}
	if tok == "" {
		return "", fmt.Errorf("%w: --token or DEPOT_TOKEN is required", depot.ErrValidation)
	}
	return tok, nil
}
