// Package ingest parses the line-oriented client and order records the
// exchange is seeded and driven with.
package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/efreitasn/exchange/internal/domain"
)

// MaxInstruments is the number of instruments a client record can seed,
// named "A" through "Z".
const MaxInstruments = 26

var (
	ErrInvalidNumber      = errors.New("invalid_number")
	ErrTooManyInstruments = errors.New("too_many_instruments")
)

// ParseError reports the 1-based line a record failed on.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ClientRecord is one parsed client registration.
type ClientRecord struct {
	Line     int
	Name     string
	Balance  uint64
	Holdings map[string]uint64 // instrument → quantity
}

// OrderRecord is one parsed order submission.
type OrderRecord struct {
	Line       int
	Client     string
	Side       domain.OrderSide
	Instrument string
	Price      uint64
	Quantity   uint64
}

// InstrumentName returns the instrument seeded by the k-th (0-based)
// holding column of a client record.
func InstrumentName(k int) string {
	return string(rune('A' + k))
}

// ReadClients parses records of the form
//
//	name balance [q1 q2 ...]
//
// where the k-th quantity seeds instrument InstrumentName(k). Blank lines
// and lines without a balance are skipped. The first malformed record
// aborts the read with a *ParseError.
func ReadClients(r io.Reader) ([]ClientRecord, error) {
	var out []ClientRecord
	err := scanLines(r, func(line int, fields []string) error {
		if len(fields) < 2 {
			return nil
		}
		balance, err := parseNumber(fields[1])
		if err != nil {
			return err
		}
		quantities := fields[2:]
		if len(quantities) > MaxInstruments {
			return fmt.Errorf("%w: %d holdings", ErrTooManyInstruments, len(quantities))
		}
		holdings := make(map[string]uint64, len(quantities))
		for k, field := range quantities {
			q, err := parseNumber(field)
			if err != nil {
				return err
			}
			holdings[InstrumentName(k)] = q
		}
		out = append(out, ClientRecord{
			Line:     line,
			Name:     fields[0],
			Balance:  balance,
			Holdings: holdings,
		})
		return nil
	})
	return out, err
}

// ReadOrders parses records of the form
//
//	name side instrument price quantity
//
// with side "b" or "s". Lines missing a field are skipped; an unknown side
// code or a malformed number aborts the read with a *ParseError.
func ReadOrders(r io.Reader) ([]OrderRecord, error) {
	var out []OrderRecord
	err := scanLines(r, func(line int, fields []string) error {
		if len(fields) < 2 {
			return nil
		}
		side, err := domain.ParseSide(fields[1])
		if err != nil {
			return err
		}
		if len(fields) < 3 {
			return nil
		}
		var price, quantity uint64
		if len(fields) >= 4 {
			if price, err = parseNumber(fields[3]); err != nil {
				return err
			}
		}
		if len(fields) < 5 {
			return nil
		}
		if quantity, err = parseNumber(fields[4]); err != nil {
			return err
		}
		out = append(out, OrderRecord{
			Line:       line,
			Client:     fields[0],
			Side:       side,
			Instrument: fields[2],
			Price:      price,
			Quantity:   quantity,
		})
		return nil
	})
	return out, err
}

func scanLines(r io.Reader, fn func(line int, fields []string) error) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if err := fn(line, fields); err != nil {
			return &ParseError{Line: line, Err: err}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading records: %w", err)
	}
	return nil
}

func parseNumber(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return n, nil
}
