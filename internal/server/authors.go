package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"library/internal/fanout"
	"library/internal/types"
	"library/internal/validation"
	"library/internal/views"
)

const (
	fieldFirstName   = "first_name"
	fieldFamilyName  = "family_name"
	fieldDateOfBirth = "date_of_birth"
	fieldDateOfDeath = "date_of_death"
	fieldAuthorId    = "authorid"

	titleAuthorList   = "Author List"
	titleAuthorDetail = "Author Detail"
	titleCreateAuthor = "Create Author"
	titleUpdateAuthor = "Update Author"
	titleDeleteAuthor = "Delete Author"
)

var authorFields = []string{fieldFirstName, fieldFamilyName, fieldDateOfBirth, fieldDateOfDeath}

var sanitize = []validation.Transform{validation.Trim, validation.Escape}

var createAuthorRules = []validation.Rule{
	{
		Field:      fieldFirstName,
		Transforms: sanitize,
		Predicates: []validation.Predicate{
			validation.NonEmpty("First name must be specified."),
			validation.Alphanumeric("First name has non-alphanumeric characters"),
		},
	},
	{
		Field:      fieldFamilyName,
		Transforms: sanitize,
		Predicates: []validation.Predicate{
			validation.NonEmpty("Family name must be specified."),
			validation.Alphanumeric("Family name has non-alphanumeric characters."),
		},
	},
	{
		Field:      fieldDateOfBirth,
		Optional:   true,
		Predicates: []validation.Predicate{validation.ISODate("Invalid date of birth")},
		ToDate:     true,
	},
	{
		Field:      fieldDateOfDeath,
		Optional:   true,
		Predicates: []validation.Predicate{validation.ISODate("Invalid date of death")},
		ToDate:     true,
	},
}

// Names are not checked for being alphanumeric on update
var updateAuthorRules = []validation.Rule{
	{
		Field:      fieldFirstName,
		Transforms: sanitize,
		Predicates: []validation.Predicate{validation.NonEmpty("First name must not be empty")},
	},
	{
		Field:      fieldFamilyName,
		Transforms: sanitize,
		Predicates: []validation.Predicate{validation.NonEmpty("Family name must not be empty.")},
	},
	{
		Field:      fieldDateOfBirth,
		Optional:   true,
		Predicates: []validation.Predicate{validation.ISODate("Invalid date of birth")},
		ToDate:     true,
	},
	{
		Field:      fieldDateOfDeath,
		Optional:   true,
		Predicates: []validation.Predicate{validation.ISODate("Invalid date of death")},
		ToDate:     true,
	},
}

var (
	errAuthorNotFound       = &StatusError{Status: http.StatusNotFound, Message: "Author not found."}
	errUpdateAuthorNotFound = &StatusError{Status: http.StatusNotFound, Message: "Author not found"}
)

// authorSubmission is the outcome of validating an author form: validAuthor or invalidAuthor
type authorSubmission interface {
	authorSubmission()
}

type validAuthor struct {
	author *types.Author
}

type invalidAuthor struct {
	raw    validation.Input
	errors []validation.FieldError
}

func (validAuthor) authorSubmission()   {}
func (invalidAuthor) authorSubmission() {}

// readAuthorForm validates the posted author fields. The candidate record is built from sanitized
// values regardless of the outcome, with id as its identity.
func readAuthorForm(r *http.Request, rules []validation.Rule, id string) (authorSubmission, *types.Author, error) {
	if err := r.ParseForm(); err != nil {
		return nil, nil, &StatusError{Status: http.StatusBadRequest, Message: "Malformed form: " + err.Error()}
	}

	raw := validation.FromForm(r.PostForm, authorFields...)
	res := validation.Sanitize(rules, raw)

	candidate := &types.Author{
		Id:          id,
		FirstName:   res.Values[fieldFirstName],
		FamilyName:  res.Values[fieldFamilyName],
		DateOfBirth: res.Date(fieldDateOfBirth),
		DateOfDeath: res.Date(fieldDateOfDeath),
	}

	if !res.Valid() {
		return invalidAuthor{raw: raw, errors: res.Errors}, candidate, nil
	}

	return validAuthor{author: candidate}, candidate, nil
}

func (c *catalog) authorList(w http.ResponseWriter, r *http.Request) {
	list, err := c.authors.GetAll(r.Context())
	if err != nil {
		c.fail(w, r, err)
		return
	}

	c.rr.Render(w, r.Context(), http.StatusOK, views.AuthorList, views.Model{
		"title":       titleAuthorList,
		"author_list": list,
	})
}

func (c *catalog) authorDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	author, authorBooks, err := fanout.Both(r.Context(),
		func(ctx context.Context) (*types.Author, error) { return c.authors.GetById(ctx, id) },
		func(ctx context.Context) ([]*types.Book, error) { return c.books.SummariesByAuthor(ctx, id) },
	)
	if err != nil {
		c.fail(w, r, err)
		return
	}

	if author == nil {
		c.fail(w, r, errAuthorNotFound)
		return
	}

	c.rr.Render(w, r.Context(), http.StatusOK, views.AuthorDetail, views.Model{
		"title":        titleAuthorDetail,
		"author":       author,
		"author_books": authorBooks,
	})
}

func (c *catalog) authorCreateGet(w http.ResponseWriter, r *http.Request) {
	c.rr.Render(w, r.Context(), http.StatusOK, views.AuthorForm, views.Model{
		"title": titleCreateAuthor,
	})
}

func (c *catalog) authorCreatePost(w http.ResponseWriter, r *http.Request) {
	sub, _, err := readAuthorForm(r, createAuthorRules, "")
	if err != nil {
		c.fail(w, r, err)
		return
	}

	switch s := sub.(type) {
	case invalidAuthor:
		c.rr.Render(w, r.Context(), http.StatusOK, views.AuthorForm, views.Model{
			"title":  titleCreateAuthor,
			"author": s.raw,
			"errors": s.errors,
		})
	case validAuthor:
		created, err := c.authors.Create(r.Context(), s.author)
		if err != nil {
			c.fail(w, r, err)
			return
		}

		slog.InfoContext(r.Context(), "Created author "+created.Id)
		c.rr.Redirect(w, r, created.URL())
	}
}

func (c *catalog) authorDeleteGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	author, authorBooks, err := c.authorWithBooks(r.Context(), id)
	if err != nil {
		c.fail(w, r, err)
		return
	}

	if author == nil {
		c.rr.Redirect(w, r, authorListUrl)
		return
	}

	c.renderDelete(w, r, author, authorBooks)
}

// authorDeletePost takes the author id from the form body, not the URL.
// Dependent books are checked before deleting, but not atomically with it.
func (c *catalog) authorDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		c.fail(w, r, &StatusError{Status: http.StatusBadRequest, Message: "Malformed form: " + err.Error()})
		return
	}

	id := r.PostForm.Get(fieldAuthorId)

	author, authorBooks, err := c.authorWithBooks(r.Context(), id)
	if err != nil {
		c.fail(w, r, err)
		return
	}

	if len(authorBooks) > 0 {
		c.renderDelete(w, r, author, authorBooks)
		return
	}

	if err := c.authors.DeleteById(r.Context(), id); err != nil {
		c.fail(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "Deleted author "+id)
	c.rr.Redirect(w, r, authorListUrl)
}

func (c *catalog) authorUpdateGet(w http.ResponseWriter, r *http.Request) {
	author, err := c.authors.GetById(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		c.fail(w, r, err)
		return
	}

	if author == nil {
		c.fail(w, r, errUpdateAuthorNotFound)
		return
	}

	c.rr.Render(w, r.Context(), http.StatusOK, views.AuthorForm, views.Model{
		"title":  titleUpdateAuthor,
		"author": author,
	})
}

func (c *catalog) authorUpdatePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sub, candidate, err := readAuthorForm(r, updateAuthorRules, id)
	if err != nil {
		c.fail(w, r, err)
		return
	}

	switch s := sub.(type) {
	case invalidAuthor:
		// The form is re-rendered with the whole author list under "author", not the edited record
		list, err := c.authors.GetAll(r.Context())
		if err != nil {
			c.fail(w, r, err)
			return
		}

		c.rr.Render(w, r.Context(), http.StatusOK, views.AuthorForm, views.Model{
			"title":  titleUpdateAuthor,
			"author": list,
			"errors": s.errors,
		})
	case validAuthor:
		updated, err := c.authors.UpdateById(r.Context(), id, candidate)
		if err != nil {
			c.fail(w, r, err)
			return
		}

		if updated == nil {
			c.fail(w, r, errUpdateAuthorNotFound)
			return
		}

		c.rr.Redirect(w, r, updated.URL())
	}
}

func (c *catalog) authorWithBooks(ctx context.Context, id string) (*types.Author, []*types.Book, error) {
	return fanout.Both(ctx,
		func(ctx context.Context) (*types.Author, error) { return c.authors.GetById(ctx, id) },
		func(ctx context.Context) ([]*types.Book, error) { return c.books.GetByAuthor(ctx, id) },
	)
}

func (c *catalog) renderDelete(w http.ResponseWriter, r *http.Request, author *types.Author, authorBooks []*types.Book) {
	c.rr.Render(w, r.Context(), http.StatusOK, views.AuthorDelete, views.Model{
		"title":        titleDeleteAuthor,
		"author":       author,
		"author_books": authorBooks,
	})
}
