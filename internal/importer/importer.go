// Package importer populates the catalog from an OPDS acquisition feed.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/opds-community/libopds2-go/opds1"

	"library/internal/storage/authors"
	"library/internal/storage/books"
	"library/internal/storage/genres"
	"library/internal/types"
)

const (
	linkTypeCatalog = "application/atom+xml;profile=opds-catalog"
	linkRelNext     = "next"
)

type Importer struct {
	Client  *http.Client
	Logger  *slog.Logger
	Authors authors.Repository
	Books   books.Repository
	Genres  genres.Repository
}

// Stats counts what an import has created
type Stats struct {
	Pages   int
	Authors int
	Books   int
	Genres  int
}

type run struct {
	*Importer
	stats Stats

	// author key (uri or name) to stored id, "" for authors that were skipped
	authorIds map[string]string
	seenBooks map[string]struct{}
	genres    map[string]struct{}
}

// Import walks feedUrl and its next pages, creating one author per distinct feed author and one
// book per distinct entry. Categories are stored as genres.
func (im *Importer) Import(ctx context.Context, feedUrl *url.URL) (*Stats, error) {
	r := &run{
		Importer:  im,
		authorIds: make(map[string]string),
		seenBooks: make(map[string]struct{}),
		genres:    make(map[string]struct{}),
	}

	visited := make(map[string]struct{})

	for page := feedUrl; page != nil; {
		if _, ok := visited[page.String()]; ok {
			im.Logger.Warn("Feed pages form a loop at " + page.String())
			break
		}
		visited[page.String()] = struct{}{}

		next, err := r.page(ctx, page)
		if err != nil {
			return &r.stats, err
		}

		r.stats.Pages++
		page = next
	}

	im.Logger.Info(fmt.Sprintf("Imported %d authors, %d books and %d genres from %d pages",
		r.stats.Authors, r.stats.Books, r.stats.Genres, r.stats.Pages))

	return &r.stats, nil
}

// page stores the entries of one feed page and returns the next page, if any
func (r *run) page(ctx context.Context, pageUrl *url.URL) (*url.URL, error) {
	r.Logger.Debug("Begin processing feed " + pageUrl.String())

	feed, err := r.fetch(ctx, pageUrl)
	if err != nil {
		return nil, err
	}

	l := r.Logger.With(slog.String("feed", pageUrl.String()))

	var terms []string
	for _, entry := range feed.Entries {
		entry.ID = strings.TrimSpace(entry.ID)

		if entry.ID == "" {
			l.Warn("Found entry without id: " + entry.Title)
			continue
		}

		if _, ok := r.seenBooks[entry.ID]; ok {
			l.Warn("Found duplicate of book " + entry.ID)
			continue
		}
		r.seenBooks[entry.ID] = struct{}{}

		authorId, err := r.author(ctx, l.With(slog.String("entry", entry.ID)), entry.Author)
		if err != nil {
			return nil, err
		}

		if authorId == "" {
			l.Warn("Skip book without usable author " + entry.ID)
			continue
		}

		_, err = r.Books.Create(ctx, &types.Book{
			Title:   strings.TrimSpace(entry.Title),
			Summary: strings.TrimSpace(entry.Content.Content),
			Author:  authorId,
		})
		if err != nil {
			return nil, fmt.Errorf("saving book %s: %w", entry.ID, err)
		}
		r.stats.Books++

		terms = append(terms, r.newGenres(l, entry.Category)...)
	}

	if len(terms) > 0 {
		if _, err := r.Genres.Insert(ctx, terms...); err != nil {
			return nil, fmt.Errorf("inserting genres: %w", err)
		}
		r.stats.Genres += len(terms)
	}

	linkNxtPage := chooseLink(ctx, feed.Links, func(link *opds1.Link) string {
		if link.Rel != linkRelNext {
			return "unknown rel " + link.Rel
		}

		if !strings.HasPrefix(link.TypeLink, linkTypeCatalog) {
			return "unknown type: " + link.TypeLink
		}

		return ""
	}, clLogger{logger: l})

	if linkNxtPage == nil {
		return nil, nil
	}

	l.Debug("Found link to the next page")

	urlNextPage, err := url.Parse(linkNxtPage.Href)
	if err != nil {
		l.Error("Failed to parse next page link " + linkNxtPage.Href + ": " + err.Error())
		return nil, nil
	}

	return pageUrl.ResolveReference(urlNextPage), nil
}

// author returns the stored id of the first usable author, creating it on first sight.
// Returns "" when the entry names no author that can be stored
func (r *run) author(ctx context.Context, l *slog.Logger, as []opds1.Author) (string, error) {
	if len(as) > 1 {
		l.Debug(fmt.Sprintf("Book has %d authors, only the first usable one is kept", len(as)))
	}

	for _, a := range as {
		name := strings.TrimSpace(a.Name)
		key := strings.TrimSpace(a.URI)
		if key == "" {
			key = name
		}

		if key == "" {
			continue
		}

		if id, ok := r.authorIds[key]; ok {
			if id == "" {
				continue
			}
			return id, nil
		}

		first, family, ok := splitName(name)
		if !ok {
			l.Warn("Skip author with single-word name " + name)
			r.authorIds[key] = ""
			continue
		}

		created, err := r.Authors.Create(ctx, &types.Author{FirstName: first, FamilyName: family})
		if err != nil {
			return "", fmt.Errorf("saving author %s: %w", key, err)
		}

		l.Debug("Created author " + created.Id + " (" + created.Name() + ")")
		r.authorIds[key] = created.Id
		r.stats.Authors++

		return created.Id, nil
	}

	return "", nil
}

// newGenres returns category terms not seen during this run
func (r *run) newGenres(l *slog.Logger, cats []opds1.Category) []string {
	var ret []string

	for _, cat := range cats {
		term := strings.TrimSpace(cat.Term)
		if term == "" {
			continue
		}

		if _, ok := r.genres[strings.ToLower(term)]; ok {
			continue
		}
		r.genres[strings.ToLower(term)] = struct{}{}

		l.Debug("Found genre " + term)
		ret = append(ret, term)
	}

	return ret
}

// splitName splits at the last space: everything before is the first name
func splitName(name string) (first, family string, ok bool) {
	name = strings.Join(strings.Fields(name), " ")

	ix := strings.LastIndex(name, " ")
	if ix < 0 {
		return "", "", false
	}

	return name[:ix], name[ix+1:], true
}
