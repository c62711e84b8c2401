package server

import (
	"context"
	"encoding/xml"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/opds-community/libopds2-go/opds1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library/internal/response"
	"library/internal/storage/authors"
	"library/internal/storage/books"
	"library/internal/storage/genres"
	"library/internal/types"
	"library/internal/views"
)

var errBroken = errors.New("storage is broken")

type fixture struct {
	handler http.Handler
	authors authors.Repository
	books   books.Repository
	genres  genres.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	return newFixtureWith(t, authors.NewMemoryRepository(), books.NewMemoryRepository())
}

func newFixtureWith(t *testing.T, ar authors.Repository, br books.Repository) *fixture {
	t.Helper()

	v, err := views.Load()
	require.NoError(t, err)

	gr := genres.NewMemoryRepository()

	return &fixture{
		handler: Handler(ar, br, gr, &response.Responder{Views: v}),
		authors: ar,
		books:   br,
		genres:  gr,
	}
}

func (f *fixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func (f *fixture) post(t *testing.T, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func (f *fixture) createAuthor(t *testing.T, first, family string) *types.Author {
	t.Helper()

	a, err := f.authors.Create(context.Background(), &types.Author{FirstName: first, FamilyName: family})
	require.NoError(t, err)
	return a
}

func (f *fixture) createBook(t *testing.T, authorId, title string) *types.Book {
	t.Helper()

	b, err := f.books.Create(context.Background(), &types.Book{Title: title, Summary: title + " summary", Author: authorId})
	require.NoError(t, err)
	return b
}

func authorForm(first, family, born, died string) url.Values {
	return url.Values{
		"first_name":    {first},
		"family_name":   {family},
		"date_of_birth": {born},
		"date_of_death": {died},
	}
}

func TestRootRedirects(t *testing.T) {
	f := newFixture(t)

	w := f.get(t, "/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/catalog", w.Header().Get("Location"))

	w = f.get(t, "/catalog")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/catalog/authors", w.Header().Get("Location"))
}

func TestAuthorLifecycle(t *testing.T) {
	f := newFixture(t)

	w := f.get(t, "/catalog/authors")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Author List</title>")
	assert.Contains(t, w.Body.String(), "There are no authors.")

	w = f.post(t, "/catalog/author/create", authorForm(" Jane ", "Austen", "1775-12-16", ""))
	require.Equal(t, http.StatusFound, w.Code)

	location := w.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/catalog/author/"), location)
	id := strings.TrimPrefix(location, "/catalog/author/")

	stored, err := f.authors.GetById(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Jane", stored.FirstName)
	require.NotNil(t, stored.DateOfBirth)
	assert.True(t, time.Date(1775, time.December, 16, 0, 0, 0, 0, time.UTC).Equal(*stored.DateOfBirth))
	assert.Nil(t, stored.DateOfDeath)

	w = f.get(t, "/catalog/authors")
	assert.Contains(t, w.Body.String(), `<a href="/catalog/author/`+id+`">Austen, Jane</a>`)
	assert.Contains(t, w.Body.String(), "December 16, 1775 - ")

	w = f.get(t, location)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Author Detail</title>")
	assert.Contains(t, w.Body.String(), "This author has no books.")

	w = f.post(t, location+"/update", authorForm("Jane", "Austen", "1775-12-16", "1817-07-18"))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, location, w.Header().Get("Location"))

	stored, err = f.authors.GetById(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, stored.DateOfDeath)
	assert.Equal(t, "1817-07-18", stored.DateOfDeath.Format("2006-01-02"))

	w = f.post(t, location+"/delete", url.Values{"authorid": {id}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/catalog/authors", w.Header().Get("Location"))

	w = f.get(t, "/catalog/authors")
	assert.Contains(t, w.Body.String(), "There are no authors.")
}

func TestAuthorListOrderedByFamilyName(t *testing.T) {
	f := newFixture(t)

	f.createAuthor(t, "Virginia", "Woolf")
	f.createAuthor(t, "Jane", "Austen")
	f.createAuthor(t, "George", "Eliot")

	body := f.get(t, "/catalog/authors").Body.String()

	austen := strings.Index(body, "Austen, Jane")
	eliot := strings.Index(body, "Eliot, George")
	woolf := strings.Index(body, "Woolf, Virginia")

	require.True(t, austen >= 0 && eliot >= 0 && woolf >= 0)
	assert.Less(t, austen, eliot)
	assert.Less(t, eliot, woolf)
}

func TestAuthorCreateGet(t *testing.T) {
	f := newFixture(t)

	w := f.get(t, "/catalog/author/create")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Create Author</title>")
	assert.Contains(t, w.Body.String(), `name="first_name" placeholder="First name" required value=""`)
	assert.NotContains(t, w.Body.String(), `class="errors"`)
}

func TestAuthorCreateInvalid(t *testing.T) {
	tests := []struct {
		name     string
		form     url.Values
		messages []string
		absent   []string
		prefill  string
	}{
		{
			name:     "empty first name",
			form:     authorForm("   ", "Austen", "", ""),
			messages: []string{"First name must be specified."},
			absent:   []string{"First name has non-alphanumeric characters"},
			prefill:  `name="family_name" placeholder="Family name" required value="Austen"`,
		},
		{
			name:     "non alphanumeric names",
			form:     authorForm("J@ne", "Aus-ten", "", ""),
			messages: []string{"First name has non-alphanumeric characters", "Family name has non-alphanumeric characters."},
			prefill:  `value="J@ne"`,
		},
		{
			name:     "bad dates",
			form:     authorForm("Jane", "Austen", "yesterday", "1817-13-45"),
			messages: []string{"Invalid date of birth", "Invalid date of death"},
			absent:   []string{"First name", "Family name"},
			prefill:  `name="date_of_birth" value="yesterday"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			w := f.post(t, "/catalog/author/create", tt.form)
			require.Equal(t, http.StatusOK, w.Code)

			body := w.Body.String()
			assert.Contains(t, body, "<title>Create Author</title>")
			for _, msg := range tt.messages {
				assert.Contains(t, body, "<li>"+msg+"</li>")
			}
			for _, msg := range tt.absent {
				assert.NotContains(t, body, "<li>"+msg)
			}
			assert.Contains(t, body, tt.prefill)

			all, err := f.authors.GetAll(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestAuthorCreateAcceptsTimestamp(t *testing.T) {
	f := newFixture(t)

	w := f.post(t, "/catalog/author/create", authorForm("Jane", "Austen", "1775-12-16T23:30:00Z", ""))
	require.Equal(t, http.StatusFound, w.Code)

	all, err := f.authors.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].DateOfBirth)
	assert.Equal(t, "1775-12-16", all[0].DateOfBirth.Format("2006-01-02"))
}

func TestAuthorDetail(t *testing.T) {
	f := newFixture(t)

	a := f.createAuthor(t, "Jane", "Austen")
	other := f.createAuthor(t, "George", "Eliot")
	b := f.createBook(t, a.Id, "Emma")
	f.createBook(t, other.Id, "Middlemarch")

	w := f.get(t, a.URL())
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "<strong>Austen, Jane</strong>")
	assert.Contains(t, body, `<a href="`+b.URL()+`">Emma</a>`)
	assert.Contains(t, body, "Emma summary")
	assert.NotContains(t, body, "Middlemarch")
	assert.Contains(t, body, `<a href="`+a.URL()+`/update">Update author</a>`)
}

func TestAuthorDetailNotFound(t *testing.T) {
	f := newFixture(t)

	w := f.get(t, "/catalog/author/missing")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Author not found.")
}

func TestAuthorDeleteGet(t *testing.T) {
	f := newFixture(t)

	a := f.createAuthor(t, "Jane", "Austen")

	w := f.get(t, a.URL()+"/delete")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Delete Author</title>")
	assert.Contains(t, w.Body.String(), `name="authorid" required value="`+a.Id+`"`)

	f.createBook(t, a.Id, "Emma")

	w = f.get(t, a.URL()+"/delete")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Delete the following books before attempting to delete this author.")
	assert.Contains(t, w.Body.String(), "Emma")
	assert.NotContains(t, w.Body.String(), `name="authorid"`)
}

func TestAuthorDeleteGetMissingRedirects(t *testing.T) {
	f := newFixture(t)

	w := f.get(t, "/catalog/author/missing/delete")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/catalog/authors", w.Header().Get("Location"))
}

func TestAuthorDeletePostWithBooks(t *testing.T) {
	f := newFixture(t)

	a := f.createAuthor(t, "Jane", "Austen")
	f.createBook(t, a.Id, "Emma")

	w := f.post(t, a.URL()+"/delete", url.Values{"authorid": {a.Id}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Delete the following books before attempting to delete this author.")

	stored, err := f.authors.GetById(context.Background(), a.Id)
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

func TestAuthorDeletePostUsesFormId(t *testing.T) {
	f := newFixture(t)

	a := f.createAuthor(t, "Jane", "Austen")
	b := f.createAuthor(t, "George", "Eliot")

	w := f.post(t, a.URL()+"/delete", url.Values{"authorid": {b.Id}})
	require.Equal(t, http.StatusFound, w.Code)

	stored, err := f.authors.GetById(context.Background(), a.Id)
	require.NoError(t, err)
	assert.NotNil(t, stored)

	stored, err = f.authors.GetById(context.Background(), b.Id)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestAuthorUpdateGet(t *testing.T) {
	f := newFixture(t)

	born := time.Date(1775, time.December, 16, 0, 0, 0, 0, time.UTC)
	a, err := f.authors.Create(context.Background(), &types.Author{FirstName: "Jane", FamilyName: "Austen", DateOfBirth: &born})
	require.NoError(t, err)

	w := f.get(t, a.URL()+"/update")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "<title>Update Author</title>")
	assert.Contains(t, body, `name="first_name" placeholder="First name" required value="Jane"`)
	assert.Contains(t, body, `name="date_of_birth" value="1775-12-16"`)
	assert.Contains(t, body, `name="date_of_death" value=""`)
}

func TestAuthorUpdateGetNotFound(t *testing.T) {
	f := newFixture(t)

	w := f.get(t, "/catalog/author/missing/update")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Author not found")
	assert.NotContains(t, w.Body.String(), "Author not found.")
}

func TestAuthorUpdatePostInvalid(t *testing.T) {
	f := newFixture(t)

	a := f.createAuthor(t, "Jane", "Austen")

	w := f.post(t, a.URL()+"/update", authorForm("", "Austen", "", "never"))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "<li>First name must not be empty</li>")
	assert.Contains(t, body, "<li>Invalid date of death</li>")
	// The form does not get the submitted or stored values back
	assert.Contains(t, body, `name="family_name" placeholder="Family name" required value=""`)

	stored, err := f.authors.GetById(context.Background(), a.Id)
	require.NoError(t, err)
	assert.Equal(t, "Jane", stored.FirstName)
}

func TestAuthorUpdatePostSanitizes(t *testing.T) {
	f := newFixture(t)

	a := f.createAuthor(t, "Flann", "OBrien")

	w := f.post(t, a.URL()+"/update", authorForm("Flann", " O'Brien ", "", ""))
	require.Equal(t, http.StatusFound, w.Code)

	stored, err := f.authors.GetById(context.Background(), a.Id)
	require.NoError(t, err)
	assert.Equal(t, a.Id, stored.Id)
	assert.Equal(t, "O&#x27;Brien", stored.FamilyName)
}

func TestAuthorUpdatePostMissing(t *testing.T) {
	f := newFixture(t)

	w := f.post(t, "/catalog/author/missing/update", authorForm("Jane", "Austen", "", ""))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

type failingAuthors struct {
	authors.Repository
}

func (failingAuthors) GetAll(context.Context) ([]*types.Author, error) {
	return nil, errBroken
}

func (failingAuthors) GetById(context.Context, string) (*types.Author, error) {
	return nil, errBroken
}

func (failingAuthors) Ping(context.Context) error {
	return errBroken
}

type failingBooks struct {
	books.Repository
}

func (failingBooks) SummariesByAuthor(context.Context, string) ([]*types.Book, error) {
	return nil, errBroken
}

func TestStorageFailures(t *testing.T) {
	f := newFixtureWith(t, failingAuthors{authors.NewMemoryRepository()}, books.NewMemoryRepository())

	for _, target := range []string{"/catalog/authors", "/catalog/author/x", "/catalog/author/x/update", "/catalog/author/x/delete", "/opds/authors"} {
		t.Run(target, func(t *testing.T) {
			w := f.get(t, target)

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Contains(t, w.Body.String(), "Unknown error occurred while processing your request.")
			assert.NotContains(t, w.Body.String(), errBroken.Error())
		})
	}
}

func TestAuthorDetailBooksFailure(t *testing.T) {
	ar := authors.NewMemoryRepository()
	f := newFixtureWith(t, ar, failingBooks{books.NewMemoryRepository()})

	a := f.createAuthor(t, "Jane", "Austen")

	w := f.get(t, a.URL())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGenreList(t *testing.T) {
	f := newFixture(t)

	w := f.get(t, "/catalog/genres")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Genre List</title>")
	assert.Contains(t, w.Body.String(), "There are no genres.")

	_, err := f.genres.Insert(context.Background(), "Romance", "Fiction")
	require.NoError(t, err)

	body := f.get(t, "/catalog/genres").Body.String()
	assert.Less(t, strings.Index(body, ">Fiction<"), strings.Index(body, ">Romance<"))
}

func TestGenrePlaceholders(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		method string
		target string
		want   string
	}{
		{http.MethodGet, "/catalog/genre/g1", "NOT IMPLEMENTED: genre detail: g1"},
		{http.MethodGet, "/catalog/genre/create", "NOT IMPLEMENTED: genre create GET"},
		{http.MethodPost, "/catalog/genre/create", "NOT IMPLEMENTED: genre create POST"},
		{http.MethodGet, "/catalog/genre/g1/delete", "NOT IMPLEMENTED: genre delete GET"},
		{http.MethodPost, "/catalog/genre/g1/delete", "NOT IMPLEMENTED: genre delete POST"},
		{http.MethodGet, "/catalog/genre/g1/update", "NOT IMPLEMENTED: genre update GET"},
		{http.MethodPost, "/catalog/genre/g1/update", "NOT IMPLEMENTED: genre update POST"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			var w *httptest.ResponseRecorder
			if tt.method == http.MethodPost {
				w = f.post(t, tt.target, url.Values{})
			} else {
				w = f.get(t, tt.target)
			}

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestOpdsAuthors(t *testing.T) {
	f := newFixture(t)

	born := time.Date(1775, time.December, 16, 0, 0, 0, 0, time.UTC)
	austen, err := f.authors.Create(context.Background(), &types.Author{FirstName: "Jane", FamilyName: "Austen", DateOfBirth: &born})
	require.NoError(t, err)
	f.createAuthor(t, "Virginia", "Woolf")

	w := f.get(t, "/opds/authors")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/atom+xml;profile=opds-catalog;kind=navigation", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `xmlns="http://www.w3.org/2005/Atom"`)

	var feed opds1.Feed
	require.NoError(t, xml.Unmarshal(w.Body.Bytes(), &feed))

	assert.Equal(t, "Author List", feed.Title)
	require.Len(t, feed.Entries, 2)

	first := feed.Entries[0]
	assert.Equal(t, "urn:uuid:"+austen.Id, first.ID)
	assert.Equal(t, "Austen, Jane", first.Title)
	assert.Equal(t, "December 16, 1775 - ", first.Content.Content)
	require.Len(t, first.Links, 1)
	assert.Equal(t, austen.URL(), first.Links[0].Href)
	assert.Equal(t, "Woolf, Virginia", feed.Entries[1].Title)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	w := f.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	f = newFixtureWith(t, failingAuthors{authors.NewMemoryRepository()}, books.NewMemoryRepository())

	w = f.get(t, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, w.Body.String())
}
