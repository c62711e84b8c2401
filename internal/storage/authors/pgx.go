package authors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"library/internal/types"
)

const table = "author"

func NewPGXRepository(pg *pgxpool.Pool, l *slog.Logger) Repository {
	return &pgxRepo{pg: pg, g: goqu.Dialect("postgres"), l: l}
}

type pgxRepo struct {
	pg *pgxpool.Pool
	g  goqu.DialectWrapper
	l  *slog.Logger
}

type pgxAuthor struct {
	Id          string     `db:"id"`
	FirstName   string     `db:"first_name"`
	FamilyName  string     `db:"family_name"`
	DateOfBirth *time.Time `db:"date_of_birth"`
	DateOfDeath *time.Time `db:"date_of_death"`
}

func fromCommon(a *types.Author) pgxAuthor {
	return pgxAuthor{
		Id:          a.Id,
		FirstName:   a.FirstName,
		FamilyName:  a.FamilyName,
		DateOfBirth: dateOnly(a.DateOfBirth),
		DateOfDeath: dateOnly(a.DateOfDeath),
	}
}

func (a *pgxAuthor) intoCommon() *types.Author {
	return &types.Author{
		Id:          a.Id,
		FirstName:   a.FirstName,
		FamilyName:  a.FamilyName,
		DateOfBirth: dateOnly(a.DateOfBirth),
		DateOfDeath: dateOnly(a.DateOfDeath),
	}
}

func getAllQuery(g goqu.DialectWrapper) *goqu.SelectDataset {
	return g.From(table).
		Order(goqu.C("family_name").Asc(), goqu.C("id").Asc())
}

func getByIdQuery(g goqu.DialectWrapper, id string) *goqu.SelectDataset {
	return g.From(table).
		Where(goqu.C("id").Eq(id))
}

func updateByIdQuery(g goqu.DialectWrapper, id string, row pgxAuthor) *goqu.UpdateDataset {
	return g.Update(table).
		Set(goqu.Record{
			"first_name":    row.FirstName,
			"family_name":   row.FamilyName,
			"date_of_birth": row.DateOfBirth,
			"date_of_death": row.DateOfDeath,
		}).
		Where(goqu.C("id").Eq(id)).
		Returning(goqu.Star())
}

func (p *pgxRepo) GetAll(ctx context.Context) ([]*types.Author, error) {
	sql, params, err := getAllQuery(p.g).ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []pgxAuthor

	err = pgxscan.Select(ctx, p.pg, &rows, sql, params...)
	if err != nil {
		return nil, fmt.Errorf("selecting authors: %w", err)
	}

	ret := make([]*types.Author, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, row.intoCommon())
	}

	return ret, nil
}

func (p *pgxRepo) GetById(ctx context.Context, id string) (*types.Author, error) {
	sql, params, err := getByIdQuery(p.g, id).ToSQL()
	if err != nil {
		return nil, err
	}

	var row pgxAuthor

	err = pgxscan.Get(ctx, p.pg, &row, sql, params...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("selecting author %s: %w", id, err)
	}

	return row.intoCommon(), nil
}

func (p *pgxRepo) Create(ctx context.Context, author *types.Author) (*types.Author, error) {
	row := fromCommon(author)
	row.Id = uuid.NewString()

	sql, params, err := p.g.Insert(table).
		Rows(row).
		ToSQL()
	if err != nil {
		return nil, err
	}

	_, err = p.pg.Exec(ctx, sql, params...)
	if err != nil {
		return nil, fmt.Errorf("inserting author: %w", err)
	}

	p.l.DebugContext(ctx, "Created author "+row.Id)

	return row.intoCommon(), nil
}

func (p *pgxRepo) UpdateById(ctx context.Context, id string, author *types.Author) (*types.Author, error) {
	sql, params, err := updateByIdQuery(p.g, id, fromCommon(author)).ToSQL()
	if err != nil {
		return nil, err
	}

	var row pgxAuthor

	err = pgxscan.Get(ctx, p.pg, &row, sql, params...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("updating author %s: %w", id, err)
	}

	return row.intoCommon(), nil
}

func (p *pgxRepo) DeleteById(ctx context.Context, id string) error {
	sql, params, err := p.g.Delete(table).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = p.pg.Exec(ctx, sql, params...)
	if err != nil {
		return fmt.Errorf("deleting author %s: %w", id, err)
	}

	return nil
}

func (p *pgxRepo) Ping(ctx context.Context) error {
	return p.pg.Ping(ctx)
}

func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	d := types.DateOnly(*t)
	return &d
}
