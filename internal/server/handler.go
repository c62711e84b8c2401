package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"library/internal/response"
	"library/internal/storage/authors"
	"library/internal/storage/books"
	"library/internal/storage/genres"
)

const (
	authorListUrl = "/catalog/authors"
	catalogUrl    = "/catalog"
)

// StatusError is a domain failure carrying its own HTTP status and a message fit for the client.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

type catalog struct {
	authors authors.Repository
	books   books.Repository
	genres  genres.Repository
	rr      *response.Responder
}

func Handler(ar authors.Repository, br books.Repository, gr genres.Repository,
	rr *response.Responder) http.Handler {

	c := &catalog{authors: ar, books: br, genres: gr, rr: rr}

	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		rr.Redirect(w, r, catalogUrl)
	})

	r.Route(catalogUrl, func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			rr.Redirect(w, r, authorListUrl)
		})

		r.Get("/authors", c.authorList)
		r.Get("/author/create", c.authorCreateGet)
		r.Post("/author/create", c.authorCreatePost)
		r.Get("/author/{id}", c.authorDetail)
		r.Get("/author/{id}/delete", c.authorDeleteGet)
		r.Post("/author/{id}/delete", c.authorDeletePost)
		r.Get("/author/{id}/update", c.authorUpdateGet)
		r.Post("/author/{id}/update", c.authorUpdatePost)

		r.Get("/genres", c.genreList)
		r.Get("/genre/create", c.genreCreateGet)
		r.Post("/genre/create", c.genreCreatePost)
		r.Get("/genre/{id}", c.genreDetail)
		r.Get("/genre/{id}/delete", c.genreDeleteGet)
		r.Post("/genre/{id}/delete", c.genreDeletePost)
		r.Get("/genre/{id}/update", c.genreUpdateGet)
		r.Post("/genre/{id}/update", c.genreUpdatePost)
	})

	r.Get("/opds/authors", c.opdsAuthors)
	r.Get("/healthz", c.health)

	return r
}

// fail passes err on to the generic error page, StatusErrors keep their status
func (c *catalog) fail(w http.ResponseWriter, r *http.Request, err error) {
	var se *StatusError
	if errors.As(err, &se) {
		c.rr.RespondAndLogCustom(w, r.Context(), se, slog.LevelInfo, se.Status)
		return
	}

	c.rr.RespondAndLogError(w, r.Context(), err)
}

func (c *catalog) health(w http.ResponseWriter, r *http.Request) {
	if err := c.authors.Ping(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Health check failed: "+err.Error())
		c.rr.SendJson(w, r.Context(), http.StatusServiceUnavailable, struct {
			Status string `json:"status"`
		}{Status: "unavailable"})
		return
	}

	c.rr.SendJson(w, r.Context(), http.StatusOK, struct {
		Status string `json:"status"`
	}{Status: "ok"})
}
