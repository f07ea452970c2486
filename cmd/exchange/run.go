package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/efreitasn/exchange/internal/config"
	"github.com/efreitasn/exchange/internal/domain"
	"github.com/efreitasn/exchange/internal/engine"
	"github.com/efreitasn/exchange/internal/ingest"
	"github.com/efreitasn/exchange/internal/service"
	"github.com/efreitasn/exchange/internal/store"
)

// run parses both record files, registers clients, replays orders and
// writes the report.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	start := time.Now()

	var (
		clients []ingest.ClientRecord
		orders  []ingest.OrderRecord
	)
	var g errgroup.Group
	g.Go(func() error {
		recs, err := readFile(cfg.ClientsFile, ingest.ReadClients)
		clients = recs
		return err
	})
	g.Go(func() error {
		recs, err := readFile(cfg.OrdersFile, ingest.ReadOrders)
		orders = recs
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	// Instantiate stores.
	accounts := store.NewAccountStore()
	orderStore := store.NewOrderStore()
	tradeStore := store.NewTradeStore()
	instruments := domain.NewInstrumentRegistry()

	// Engine.
	books := engine.NewBookManager()
	matcher := engine.NewMatcher(books, accounts, orderStore, tradeStore, instruments, logger)

	svc := service.NewBatchService(matcher, logger)

	reg := svc.RegisterClients(clients)
	logger.Info("clients registered",
		slog.Int("registered", reg.Registered),
		slog.Int("skipped", reg.Skipped),
		slog.Int("accounts", accounts.Len()),
		slog.Duration("elapsed", time.Since(start)),
	)

	replayCtx := ctx
	if cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		replayCtx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
	}
	sum, err := svc.SubmitOrders(replayCtx, orders)
	if err != nil {
		return fmt.Errorf("replaying orders: %w", err)
	}
	logger.Info("orders replayed",
		slog.Any("summary", sum),
		slog.Any("statuses", matcher.StatusCounts()),
		slog.Int("journaled", orderStore.Len()),
		slog.Int("tape", tradeStore.Len()),
		slog.Int("open_orders", matcher.OpenOrderCount()),
		slog.Duration("elapsed", time.Since(start)),
	)

	if cfg.BookDepth > 0 {
		for _, instrument := range books.Instruments() {
			bids, asks := matcher.Depth(instrument, cfg.BookDepth)
			attrs := []any{
				slog.String("instrument", instrument),
				slog.Any("bids", bids),
				slog.Any("asks", asks),
			}
			if trades := matcher.InstrumentTrades(instrument); len(trades) > 0 {
				attrs = append(attrs,
					slog.Int("trades", len(trades)),
					slog.Uint64("last_price", trades[len(trades)-1].Price),
				)
			}
			logger.Info("book depth", attrs...)
		}
	}
	svc.LogOpenOrders(ctx)

	if err := writeFile(cfg.ResultFile, svc.WriteReport); err != nil {
		return err
	}
	if cfg.TradesFile != "" {
		if err := writeFile(cfg.TradesFile, svc.WriteTrades); err != nil {
			return err
		}
	}

	logger.Info("run complete",
		slog.String("result_file", cfg.ResultFile),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func readFile[T any](path string, parse func(r io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	recs, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return recs, nil
}

func writeFile(path string, write func(w io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	if err := write(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
