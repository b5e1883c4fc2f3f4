package paper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/tradebridge/internal/domain/models"
	"github.com/guttosm/tradebridge/internal/venue"
)

var mappings = []models.InstrumentMapping{
	{TerminalCode: "GBPUSD", ContractID: 230949810, VenueSymbol: "GBP.USD", Currency: "USD"},
	{TerminalCode: "EURUSD", ContractID: 12087792, VenueSymbol: "EUR.USD", Currency: "USD"},
}

func connected(t *testing.T, opts ...Option) *Gateway {
	t.Helper()
	g := New(mappings, opts...)
	if err := g.Connect(context.Background(), venue.Endpoint{ClientID: 1}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return g
}

func TestConnectAndDrop(t *testing.T) {
	g := New(mappings)
	if g.IsConnected() {
		t.Fatalf("new gateway reports connected")
	}

	g.FailConnect(errors.New("connection refused"))
	if err := g.Connect(context.Background(), venue.Endpoint{}); err == nil || err.Error() != "connection refused" {
		t.Fatalf("Connect err=%v, want connection refused", err)
	}
	if g.IsConnected() {
		t.Fatalf("failed connect left the gateway connected")
	}

	g.FailConnect(nil)
	if err := g.Connect(context.Background(), venue.Endpoint{}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !g.IsConnected() {
		t.Fatalf("expected connected gateway")
	}

	g.Drop()
	if g.IsConnected() {
		t.Fatalf("gateway still connected after Drop")
	}
}

func TestQualifyContract(t *testing.T) {
	g := connected(t)

	cases := []struct {
		name    string
		spec    venue.ContractSpec
		wantID  int64
		wantErr error
	}{
		{name: "by conid", spec: venue.ContractSpec{ConID: 230949810, SecType: "CFD", Exchange: "SMART"}, wantID: 230949810},
		{name: "by symbol", spec: venue.ContractSpec{Symbol: "EUR.USD", Currency: "USD"}, wantID: 12087792},
		{name: "zero identity", spec: venue.ContractSpec{SecType: "CFD", Exchange: "SMART"}, wantErr: venue.ErrContractNotFound},
		{name: "unknown conid", spec: venue.ContractSpec{ConID: 1}, wantErr: venue.ErrContractNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := g.QualifyContract(context.Background(), tc.spec)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err=%v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("QualifyContract: %v", err)
			}
			if got.ConID != tc.wantID || got.SecType != venue.SecTypeCFD {
				t.Fatalf("got %+v, want conid %d CFD", got, tc.wantID)
			}
		})
	}
}

func TestQualifyContract_Ambiguous(t *testing.T) {
	g := New(append(mappings, models.InstrumentMapping{TerminalCode: "GBPUSD.b", ContractID: 999, VenueSymbol: "GBP.USD", Currency: "USD"}))
	if err := g.Connect(context.Background(), venue.Endpoint{}); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	_, err := g.QualifyContract(context.Background(), venue.ContractSpec{Symbol: "GBP.USD"})
	if !errors.Is(err, venue.ErrAmbiguousContract) {
		t.Fatalf("err=%v, want ErrAmbiguousContract", err)
	}
}

func TestPlaceOrder_SubmitsThenFills(t *testing.T) {
	g := connected(t, WithLatency(time.Millisecond, 10*time.Millisecond))
	qty := decimal.NewFromInt(10000)

	trade, err := g.PlaceOrder(context.Background(), venue.ContractSpec{ConID: 230949810}, venue.OrderSpec{Action: "BUY", TotalQuantity: qty})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if trade.OrderID != 1 {
		t.Fatalf("order id=%d, want 1", trade.OrderID)
	}

	st, err := trade.WaitStatus(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("WaitStatus: %v", err)
	}
	if st.Status != venue.StatusSubmitted {
		t.Fatalf("first status=%s, want Submitted", st.Status)
	}

	deadline := time.Now().Add(time.Second)
	for trade.Status().Status != venue.StatusFilled {
		if time.Now().After(deadline) {
			t.Fatalf("order never filled, last status %s", trade.Status().Status)
		}
		time.Sleep(time.Millisecond)
	}
	if !trade.Status().Filled.Equal(qty) {
		t.Fatalf("filled=%s, want %s", trade.Status().Filled, qty)
	}

	next, err := g.PlaceOrder(context.Background(), venue.ContractSpec{ConID: 230949810}, venue.OrderSpec{Action: "SELL", TotalQuantity: qty})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if next.OrderID != 2 {
		t.Fatalf("order id=%d, want 2", next.OrderID)
	}
}

func TestNotConnected(t *testing.T) {
	g := New(mappings)
	if _, err := g.QualifyContract(context.Background(), venue.ContractSpec{ConID: 230949810}); !errors.Is(err, venue.ErrNotConnected) {
		t.Fatalf("QualifyContract err=%v, want ErrNotConnected", err)
	}
	if _, err := g.PlaceOrder(context.Background(), venue.ContractSpec{}, venue.OrderSpec{}); !errors.Is(err, venue.ErrNotConnected) {
		t.Fatalf("PlaceOrder err=%v, want ErrNotConnected", err)
	}
}
