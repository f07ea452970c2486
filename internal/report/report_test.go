package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/efreitasn/exchange/internal/domain"
)

func TestWriteBalances(t *testing.T) {
	accounts := []domain.Account{
		*domain.NewAccount("C1", 1000, map[string]uint64{"A": 5, "C": 7}),
		*domain.NewAccount("C2", 0, nil),
	}

	var buf bytes.Buffer
	if err := WriteBalances(&buf, accounts, []string{"A", "B", "C"}); err != nil {
		t.Fatalf("WriteBalances: %v", err)
	}

	want := "C1\t1000\t5\t0\t7\n" +
		"C2\t0\t0\t0\t0\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("balances mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteBalances_NoInstruments(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteBalances(&buf, []domain.Account{*domain.NewAccount("solo", 42, nil)}, nil); err != nil {
		t.Fatalf("WriteBalances: %v", err)
	}
	if diff := cmp.Diff("solo\t42\n", buf.String()); diff != "" {
		t.Errorf("balances mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteTrades(t *testing.T) {
	trades := []*domain.Trade{
		{TradeID: "t1", Instrument: "A", BuyerID: "b", SellerID: "s", Price: 10, Quantity: 3},
		{TradeID: "t2", Instrument: "B", BuyerID: "s", SellerID: "b", Price: 7, Quantity: 1},
	}

	var buf bytes.Buffer
	if err := WriteTrades(&buf, trades); err != nil {
		t.Fatalf("WriteTrades: %v", err)
	}

	want := "t1\tA\tb\ts\t10\t3\n" +
		"t2\tB\ts\tb\t7\t1\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("trades mismatch (-want +got):\n%s", diff)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteBalances_PropagatesWriteError(t *testing.T) {
	err := WriteBalances(failingWriter{}, []domain.Account{*domain.NewAccount("C1", 1, nil)}, nil)
	if err == nil {
		t.Fatal("expected write error")
	}
}
