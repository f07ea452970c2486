// Package report renders end-of-run balances and the trade tape as
// tab-separated text.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/efreitasn/exchange/internal/domain"
)

// WriteBalances writes one line per account:
//
//	name<TAB>balance<TAB>q(instrument1)<TAB>...
//
// with a column for every instrument in the order given; missing holdings
// print as 0. Accounts are written in the order given.
func WriteBalances(w io.Writer, accounts []domain.Account, instruments []string) error {
	bw := bufio.NewWriter(w)
	fields := make([]string, 0, len(instruments)+2)
	for _, a := range accounts {
		fields = append(fields[:0], a.ClientID, strconv.FormatUint(a.Balance, 10))
		for _, instrument := range instruments {
			fields = append(fields, strconv.FormatUint(a.HeldQuantity(instrument), 10))
		}
		if _, err := fmt.Fprintln(bw, strings.Join(fields, "\t")); err != nil {
			return fmt.Errorf("writing balance for %s: %w", a.ClientID, err)
		}
	}
	return bw.Flush()
}

// WriteTrades writes the trade tape, one execution per line:
//
//	trade_id<TAB>instrument<TAB>buyer<TAB>seller<TAB>price<TAB>quantity
func WriteTrades(w io.Writer, trades []*domain.Trade) error {
	bw := bufio.NewWriter(w)
	for _, t := range trades {
		_, err := fmt.Fprintf(bw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			t.TradeID, t.Instrument, t.BuyerID, t.SellerID, t.Price, t.Quantity)
		if err != nil {
			return fmt.Errorf("writing trade %s: %w", t.TradeID, err)
		}
	}
	return bw.Flush()
}
