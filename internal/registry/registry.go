// Package registry maps terminal instrument codes to venue instrument identity.
//
// A Registry is built once at startup from one or more Sources and is
// read-only afterwards, so it is safe for concurrent use without locking.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/guttosm/tradebridge/internal/domain/models"
)

// ErrInvalidMapping is returned when a source yields an unusable entry.
var ErrInvalidMapping = errors.New("invalid instrument mapping")

// Source yields instrument mappings. Implementations may block (file or
// database reads) and should honor ctx.
type Source interface {
	Mappings(ctx context.Context) ([]models.InstrumentMapping, error)
}

// Registry is an immutable table from terminal code to InstrumentMapping.
type Registry struct {
	byCode map[string]models.InstrumentMapping
}

// New builds a registry from the given mappings. Later duplicates win.
func New(mappings ...models.InstrumentMapping) (*Registry, error) {
	r := &Registry{byCode: make(map[string]models.InstrumentMapping, len(mappings))}
	for _, m := range mappings {
		m.TerminalCode = strings.TrimSpace(m.TerminalCode)
		if m.TerminalCode == "" {
			return nil, fmt.Errorf("%w: empty terminal code", ErrInvalidMapping)
		}
		if m.ContractID <= 0 {
			return nil, fmt.Errorf("%w: %s has contract id %d", ErrInvalidMapping, m.TerminalCode, m.ContractID)
		}
		r.byCode[m.TerminalCode] = m
	}
	return r, nil
}

// Load reads every source in order and builds a registry from the union.
func Load(ctx context.Context, sources ...Source) (*Registry, error) {
	var all []models.InstrumentMapping
	for _, src := range sources {
		ms, err := src.Mappings(ctx)
		if err != nil {
			return nil, fmt.Errorf("load symbols: %w", err)
		}
		all = append(all, ms...)
	}
	return New(all...)
}

// Resolve returns the mapping for code and whether it exists.
func (r *Registry) Resolve(code string) (models.InstrumentMapping, bool) {
	m, ok := r.byCode[code]
	return m, ok
}

// Lookup returns the mapping for code, or the zero mapping when the code is
// unknown. Callers must check Resolvable before using the result.
func (r *Registry) Lookup(code string) models.InstrumentMapping {
	return r.byCode[code]
}

// Codes returns the known terminal codes in ascending order.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.byCode))
	for c := range r.byCode {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// All returns every mapping ordered by terminal code.
func (r *Registry) All() []models.InstrumentMapping {
	out := make([]models.InstrumentMapping, 0, len(r.byCode))
	for _, c := range r.Codes() {
		out = append(out, r.byCode[c])
	}
	return out
}

// Len returns the number of mappings.
func (r *Registry) Len() int { return len(r.byCode) }
