package service

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/guttosm/tradebridge/internal/domain/models"
	"github.com/guttosm/tradebridge/internal/registry"
	"github.com/guttosm/tradebridge/internal/venue"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r, err := registry.New(registry.Defaults...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return r
}

func TestLotsToUnits(t *testing.T) {
	cases := []struct {
		lots string
		want string
	}{
		{"0.1", "10000"},
		{"2.5", "250000"},
		{"1", "100000"},
		{"0.01", "1000"},
		{"0", "0"},
		{"0.00001", "1"},
		{"123.45678", "12345678"},
	}
	for _, c := range cases {
		got := LotsToUnits(decimal.RequireFromString(c.lots))
		if !got.Equal(decimal.RequireFromString(c.want)) {
			t.Fatalf("LotsToUnits(%s)=%s, want %s", c.lots, got, c.want)
		}
	}
}

func TestTranslate_RejectsInvalidAction(t *testing.T) {
	tr := NewTranslator(newRegistry(t), true)
	for _, action := range []string{"CANCEL", "", "NEW", "MODIFY_ORDER", "NEW_ORDERS"} {
		_, _, err := tr.Translate(models.OrderIntent{Action: action, TerminalCode: "GBPUSD", Direction: "BUY", Volume: decimal.NewFromInt(1)})
		if !IsValidation(err) || err.Error() != "Invalid action" {
			t.Fatalf("action %q: want Invalid action, got %v", action, err)
		}
	}
}

func TestTranslate_ActionIsCaseInsensitive(t *testing.T) {
	tr := NewTranslator(newRegistry(t), true)
	for _, action := range []string{"NEW_ORDER", "new_order", "New_Order"} {
		if _, _, err := tr.Translate(models.OrderIntent{Action: action, TerminalCode: "GBPUSD", Direction: "BUY", Volume: decimal.NewFromInt(1)}); err != nil {
			t.Fatalf("action %q: unexpected err %v", action, err)
		}
	}
}

func TestTranslate_ValidatesDirectionAndVolume(t *testing.T) {
	tr := NewTranslator(newRegistry(t), true)
	cases := []struct {
		name      string
		direction string
		volume    string
	}{
		{"bad direction", "HOLD", "1"},
		{"empty direction", "", "1"},
		{"zero volume", "BUY", "0"},
		{"negative volume", "SELL", "-0.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := tr.Translate(models.OrderIntent{Action: ActionNewOrder, TerminalCode: "GBPUSD", Direction: tc.direction, Volume: decimal.RequireFromString(tc.volume)})
			if !IsValidation(err) {
				t.Fatalf("want ValidationError, got %v", err)
			}
		})
	}
}

func TestTranslate_BuildsDescriptors(t *testing.T) {
	tr := NewTranslator(newRegistry(t), true)
	contract, order, err := tr.Translate(models.OrderIntent{
		Action:       ActionNewOrder,
		TerminalCode: "GBPUSD",
		Direction:    "sell",
		Volume:       decimal.RequireFromString("0.1"),
		RequestID:    "req-42",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	wantContract := venue.ContractSpec{ConID: 230949810, Symbol: "GBP.USD", SecType: "CFD", Exchange: "SMART", Currency: "USD"}
	if contract != wantContract {
		t.Fatalf("contract=%+v, want %+v", contract, wantContract)
	}
	if order.Action != "SELL" || order.OrderType != "MKT" || order.OrderRef != "req-42" {
		t.Fatalf("unexpected order %+v", order)
	}
	if !order.TotalQuantity.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("quantity=%s, want 10000", order.TotalQuantity)
	}
}

func TestTranslate_UnmappedSymbol(t *testing.T) {
	intent := models.OrderIntent{Action: ActionNewOrder, TerminalCode: "EURUSD", Direction: "BUY", Volume: decimal.NewFromInt(1)}

	_, _, err := NewTranslator(newRegistry(t), true).Translate(intent)
	if ErrorKind(err) != KindUnresolvedInstrument {
		t.Fatalf("strict: want UnresolvedInstrumentError, got %v", err)
	}

	contract, _, err := NewTranslator(newRegistry(t), false).Translate(intent)
	if err != nil {
		t.Fatalf("legacy: unexpected err %v", err)
	}
	want := venue.ContractSpec{SecType: "CFD", Exchange: "SMART"}
	if contract != want {
		t.Fatalf("legacy: contract=%+v, want zero identity %+v", contract, want)
	}
}
