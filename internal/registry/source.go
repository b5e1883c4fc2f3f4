package registry

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/guttosm/tradebridge/internal/domain/models"
)

// Defaults are the built-in mappings. They are always loaded first, so other
// sources override them code by code.
var Defaults = []models.InstrumentMapping{
	{TerminalCode: "GBPUSD", ContractID: 230949810, VenueSymbol: "GBP.USD", Currency: "USD"},
}

// StaticSource serves a fixed list of mappings.
type StaticSource []models.InstrumentMapping

// Mappings implements Source.
func (s StaticSource) Mappings(context.Context) ([]models.InstrumentMapping, error) {
	out := make([]models.InstrumentMapping, len(s))
	copy(out, s)
	return out, nil
}

// FileSource reads a YAML/JSON/TOML file with a top-level "symbols" list:
//
//	symbols:
//	  - code: GBPUSD
//	    conid: 230949810
//	    symbol: GBP.USD
//	    currency: USD
type FileSource struct {
	Path string
}

type fileEntry struct {
	Code     string `mapstructure:"code"`
	ConID    int64  `mapstructure:"conid"`
	Symbol   string `mapstructure:"symbol"`
	Currency string `mapstructure:"currency"`
}

// Mappings implements Source.
func (f FileSource) Mappings(context.Context) ([]models.InstrumentMapping, error) {
	v := viper.New()
	v.SetConfigFile(f.Path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read symbols file %s: %w", f.Path, err)
	}

	var entries []fileEntry
	if err := v.UnmarshalKey("symbols", &entries); err != nil {
		return nil, fmt.Errorf("decode symbols file %s: %w", f.Path, err)
	}

	out := make([]models.InstrumentMapping, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.InstrumentMapping{
			TerminalCode: e.Code,
			ContractID:   e.ConID,
			VenueSymbol:  e.Symbol,
			Currency:     e.Currency,
		})
	}
	return out, nil
}
