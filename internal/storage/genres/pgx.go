package genres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/doug-martin/goqu/v9"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"library/internal/types"
)

const table = "genre"

func NewPGXRepository(pg *pgxpool.Pool, l *slog.Logger) Repository {
	return &pgxRepo{pg: pg, g: goqu.Dialect("postgres"), l: l}
}

type pgxRepo struct {
	pg *pgxpool.Pool
	g  goqu.DialectWrapper
	l  *slog.Logger
}

type pgxGenre struct {
	Id   string `db:"id"`
	Name string `db:"name"`
}

func (p *pgxRepo) GetAll(ctx context.Context) ([]*types.Genre, error) {
	sql, params, err := p.g.From(table).
		Order(goqu.C("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []pgxGenre

	err = pgxscan.Select(ctx, p.pg, &rows, sql, params...)
	if err != nil {
		return nil, fmt.Errorf("selecting genres: %w", err)
	}

	ret := make([]*types.Genre, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, &types.Genre{Id: row.Id, Name: row.Name})
	}

	return ret, nil
}

func (p *pgxRepo) Insert(ctx context.Context, names ...string) (map[string]*types.Genre, error) {
	if len(names) == 0 {
		return make(map[string]*types.Genre), nil
	}

	rows := make([]any, 0, len(names))
	for _, name := range names {
		rows = append(rows, pgxGenre{Id: uuid.NewString(), Name: name})
	}

	sql, params, err := p.g.Insert(table).
		Rows(rows...).
		OnConflict(goqu.DoNothing()).
		ToSQL()
	if err != nil {
		return nil, err
	}

	_, err = p.pg.Exec(ctx, sql, params...)
	if err != nil {
		return nil, fmt.Errorf("inserting genres: %w", err)
	}

	sql, params, err = p.g.From(table).
		Where(goqu.C("name").In(names)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var stored []pgxGenre

	err = pgxscan.Select(ctx, p.pg, &stored, sql, params...)
	if err != nil {
		return nil, fmt.Errorf("selecting inserted genres: %w", err)
	}

	ret := make(map[string]*types.Genre, len(stored))
	for _, row := range stored {
		ret[row.Name] = &types.Genre{Id: row.Id, Name: row.Name}
	}

	return ret, nil
}
