package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"

	"github.com/efreitasn/exchange/internal/domain"
	"github.com/efreitasn/exchange/internal/engine"
	"github.com/efreitasn/exchange/internal/ingest"
	"github.com/efreitasn/exchange/internal/report"
)

var instrumentRegex = regexp.MustCompile(`^[A-Za-z0-9]{1,16}$`)

// RegistrationSummary counts the outcome of a client registration pass.
type RegistrationSummary struct {
	Registered int
	Skipped    int
}

// Summary counts the outcome of an order replay.
type Summary struct {
	Submitted       int
	Filled          int
	PartiallyFilled int
	Rested          int
	Rejected        int
	Failed          int
	Trades          int
	Dropped         int
}

// LogValue implements slog.LogValuer.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("submitted", s.Submitted),
		slog.Int("filled", s.Filled),
		slog.Int("partially_filled", s.PartiallyFilled),
		slog.Int("rested", s.Rested),
		slog.Int("rejected", s.Rejected),
		slog.Int("failed", s.Failed),
		slog.Int("trades", s.Trades),
		slog.Int("dropped", s.Dropped),
	)
}

// BatchService feeds parsed client and order records through the matcher
// and renders the end-of-run report.
type BatchService struct {
	matcher *engine.Matcher
	logger  *slog.Logger
}

// NewBatchService creates a new BatchService. A nil logger falls back to
// slog.Default().
func NewBatchService(matcher *engine.Matcher, logger *slog.Logger) *BatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchService{matcher: matcher, logger: logger}
}

// RegisterClients registers every record in order. Duplicates and invalid
// records are logged and skipped.
func (s *BatchService) RegisterClients(records []ingest.ClientRecord) RegistrationSummary {
	var sum RegistrationSummary
	for _, rec := range records {
		if err := s.matcher.RegisterClient(rec.Name, rec.Balance, rec.Holdings); err != nil {
			s.logger.Warn("client registration skipped",
				slog.String("client_id", rec.Name),
				slog.Int("line", rec.Line),
				slog.String("error", err.Error()),
			)
			sum.Skipped++
			continue
		}
		sum.Registered++
	}
	return sum
}

// SubmitOrders replays records in order. A record the matcher refuses is
// logged, counted as failed, and the replay continues. A cancelled context
// stops the replay and returns ctx.Err() with the counts so far.
func (s *BatchService) SubmitOrders(ctx context.Context, records []ingest.OrderRecord) (Summary, error) {
	var sum Summary
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Submitted++

		exec, err := s.submit(rec)
		if err != nil {
			level := slog.LevelWarn
			var vErr *domain.ValidationError
			if errors.As(err, &vErr) {
				level = slog.LevelInfo
			}
			s.logger.Log(ctx, level, "order failed",
				slog.String("client_id", rec.Client),
				slog.Int("line", rec.Line),
				slog.String("error", err.Error()),
			)
			sum.Failed++
			continue
		}

		sum.Trades += len(exec.Trades)
		sum.Dropped += len(exec.Dropped)
		if avg, ok := exec.Order.AveragePrice(); ok {
			s.logger.Debug("order executed",
				slog.String("order_id", exec.Order.OrderID),
				slog.String("client_id", rec.Client),
				slog.Uint64("filled", exec.Order.FilledQuantity),
				slog.Uint64("average_price", avg),
			)
		}
		switch exec.Order.Status {
		case domain.OrderStatusFilled:
			sum.Filled++
		case domain.OrderStatusPartiallyFilled:
			sum.PartiallyFilled++
		case domain.OrderStatusPending:
			sum.Rested++
		case domain.OrderStatusRejected:
			sum.Rejected++
			s.logger.Debug("order rejected",
				slog.String("order_id", exec.Order.OrderID),
				slog.String("client_id", rec.Client),
				slog.String("reason", string(exec.Order.RejectReason)),
			)
		}
	}
	return sum, nil
}

func (s *BatchService) submit(rec ingest.OrderRecord) (*engine.Execution, error) {
	if !instrumentRegex.MatchString(rec.Instrument) {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("invalid instrument %q", rec.Instrument),
		}
	}
	return s.matcher.Submit(rec.Client, rec.Side, rec.Instrument, rec.Price, rec.Quantity)
}

// LogOpenOrders logs, at debug level, every client's orders still resting
// on the book.
func (s *BatchService) LogOpenOrders(ctx context.Context) {
	if !s.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	for _, a := range s.matcher.SnapshotAccounts() {
		for _, o := range s.matcher.OpenOrders(a.ClientID) {
			s.logger.DebugContext(ctx, "open order",
				slog.String("order_id", o.OrderID),
				slog.String("client_id", o.ClientID),
				slog.String("instrument", o.Instrument),
				slog.String("side", string(o.Side)),
				slog.Uint64("price", o.Price),
				slog.Uint64("remaining", o.RemainingQuantity),
			)
		}
	}
}

// WriteReport writes the balance report for every account over every
// known instrument.
func (s *BatchService) WriteReport(w io.Writer) error {
	return report.WriteBalances(w, s.matcher.SnapshotAccounts(), s.matcher.Instruments())
}

// WriteTrades writes the trade tape in execution order.
func (s *BatchService) WriteTrades(w io.Writer) error {
	return report.WriteTrades(w, s.matcher.Trades())
}
