package books

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/doug-martin/goqu/v9"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"library/internal/types"
)

const table = "book"

func NewPGXRepository(pg *pgxpool.Pool, l *slog.Logger) Repository {
	return &pgxRepo{pg: pg, g: goqu.Dialect("postgres"), l: l}
}

type pgxRepo struct {
	pg *pgxpool.Pool
	g  goqu.DialectWrapper
	l  *slog.Logger
}

type pgxBook struct {
	Id       string `db:"id"`
	Title    string `db:"title"`
	Summary  string `db:"summary"`
	AuthorId string `db:"author_id"`
}

func (b *pgxBook) intoCommon() *types.Book {
	return &types.Book{
		Id:      b.Id,
		Title:   b.Title,
		Summary: b.Summary,
		Author:  b.AuthorId,
	}
}

func byAuthorQuery(g goqu.DialectWrapper, authorId string, cols ...any) *goqu.SelectDataset {
	qb := g.From(table).
		Where(goqu.C("author_id").Eq(authorId)).
		Order(goqu.C("title").Asc())

	if len(cols) > 0 {
		qb = qb.Select(cols...)
	}

	return qb
}

func (p *pgxRepo) GetById(ctx context.Context, id string) (*types.Book, error) {
	sql, params, err := p.g.From(table).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var row pgxBook

	err = pgxscan.Get(ctx, p.pg, &row, sql, params...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("selecting book %s: %w", id, err)
	}

	return row.intoCommon(), nil
}

func (p *pgxRepo) GetByAuthor(ctx context.Context, authorId string) ([]*types.Book, error) {
	return p.selectByAuthor(ctx, byAuthorQuery(p.g, authorId))
}

func (p *pgxRepo) SummariesByAuthor(ctx context.Context, authorId string) ([]*types.Book, error) {
	return p.selectByAuthor(ctx, byAuthorQuery(p.g, authorId, "id", "title", "summary"))
}

func (p *pgxRepo) selectByAuthor(ctx context.Context, qb *goqu.SelectDataset) ([]*types.Book, error) {
	sql, params, err := qb.ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []pgxBook

	err = pgxscan.Select(ctx, p.pg, &rows, sql, params...)
	if err != nil {
		return nil, fmt.Errorf("selecting books by author: %w", err)
	}

	ret := make([]*types.Book, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, row.intoCommon())
	}

	return ret, nil
}

func (p *pgxRepo) Create(ctx context.Context, book *types.Book) (*types.Book, error) {
	row := pgxBook{
		Id:       uuid.NewString(),
		Title:    book.Title,
		Summary:  book.Summary,
		AuthorId: book.Author,
	}

	sql, params, err := p.g.Insert(table).
		Rows(row).
		ToSQL()
	if err != nil {
		return nil, err
	}

	_, err = p.pg.Exec(ctx, sql, params...)
	if err != nil {
		return nil, fmt.Errorf("inserting book: %w", err)
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
		return fmt.Errorf("deleting book %s: %w", id, err)
	}

	return nil
}
