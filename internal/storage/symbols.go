package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/guttosm/tradebridge/internal/domain/models"
)

// SymbolRepository reads terminal-to-venue instrument mappings from the
// symbol_mappings table. It satisfies registry.Source.
type SymbolRepository interface {
	Mappings(ctx context.Context) ([]models.InstrumentMapping, error)
}

type symbolRow struct {
	TerminalCode string `db:"terminal_code"`
	ContractID   int64  `db:"contract_id"`
	VenueSymbol  string `db:"venue_symbol"`
	Currency     string `db:"currency"`
}

type symbolRepository struct {
	db *sqlx.DB
	qb sq.StatementBuilderType
}

// NewSymbolRepository returns a repository backed by a Postgres connection.
func NewSymbolRepository(db *sqlx.DB) SymbolRepository {
	return &symbolRepository{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Mappings returns every active mapping ordered by terminal code.
func (r *symbolRepository) Mappings(ctx context.Context) ([]models.InstrumentMapping, error) {
	query, args, err := r.qb.
		Select("terminal_code", "contract_id", "venue_symbol", "currency").
		From("symbol_mappings").
		Where(sq.Eq{"active": true}).
		OrderBy("terminal_code").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build symbol query: %w", err)
	}

	var rows []symbolRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select symbol mappings: %w", err)
	}

	out := make([]models.InstrumentMapping, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.InstrumentMapping{
			TerminalCode: row.TerminalCode,
			ContractID:   row.ContractID,
			VenueSymbol:  row.VenueSymbol,
			Currency:     row.Currency,
		})
	}
	return out, nil
}
