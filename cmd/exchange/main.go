package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/efreitasn/exchange/internal/config"
)

const (
	logLevelFlagName    = "log-level"
	clientsFileFlagName = "clients"
	ordersFileFlagName  = "orders"
	resultFileFlagName  = "result"
	tradesFileFlagName  = "trades"
	bookDepthFlagName   = "book-depth"
	runTimeoutFlagName  = "timeout"
)

func main() {
	// Load configuration; flags default to the env-derived values.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "exchange",
		Short:         "Replays client and order records through a limit order matching engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				logStartupError(cmd.ErrOrStderr(), err)
				return err
			}

			logger := slog.New(slog.NewJSONHandler(cmd.OutOrStdout(), &slog.HandlerOptions{
				Level: cfg.SlogLevel(),
			}))
			slog.SetDefault(logger)

			if err := run(cmd.Context(), cfg, logger); err != nil {
				logger.Error("run failed", slog.String("error", err.Error()))
				return err
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		logStartupError(cmd.ErrOrStderr(), err)
		return err
	})

	flags := cmd.Flags()
	flags.StringVar(&cfg.LogLevel, logLevelFlagName, cfg.LogLevel, "Log level: debug, info, warn, error")
	flags.StringVar(&cfg.ClientsFile, clientsFileFlagName, cfg.ClientsFile, "Client records to register")
	flags.StringVar(&cfg.OrdersFile, ordersFileFlagName, cfg.OrdersFile, "Order records to replay")
	flags.StringVar(&cfg.ResultFile, resultFileFlagName, cfg.ResultFile, "Where to write final balances")
	flags.StringVar(&cfg.TradesFile, tradesFileFlagName, cfg.TradesFile, "Where to write the trade tape (disabled when empty)")
	flags.IntVar(&cfg.BookDepth, bookDepthFlagName, cfg.BookDepth, "Price levels per side to log for each book at the end of the run")
	flags.DurationVar(&cfg.RunTimeout, runTimeoutFlagName, cfg.RunTimeout, "Abort the order replay after this long (0 disables)")
	return cmd
}

// logStartupError reports a failure that happens before the run logger
// exists.
func logStartupError(w io.Writer, err error) {
	slog.New(slog.NewJSONHandler(w, nil)).Error("invalid configuration", slog.String("error", err.Error()))
}
