package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"library/internal/views"
)

const notImplemented = "NOT IMPLEMENTED: "

func (c *catalog) genreList(w http.ResponseWriter, r *http.Request) {
	list, err := c.genres.GetAll(r.Context())
	if err != nil {
		c.fail(w, r, err)
		return
	}

	c.rr.Render(w, r.Context(), http.StatusOK, views.GenreList, views.Model{
		"title":      "Genre List",
		"genre_list": list,
	})
}

func (c *catalog) genreDetail(w http.ResponseWriter, r *http.Request) {
	c.rr.SendText(w, notImplemented+"genre detail: "+chi.URLParam(r, "id"))
}

func (c *catalog) genreCreateGet(w http.ResponseWriter, _ *http.Request) {
	c.rr.SendText(w, notImplemented+"genre create GET")
}

func (c *catalog) genreCreatePost(w http.ResponseWriter, _ *http.Request) {
	c.rr.SendText(w, notImplemented+"genre create POST")
}

func (c *catalog) genreDeleteGet(w http.ResponseWriter, _ *http.Request) {
	c.rr.SendText(w, notImplemented+"genre delete GET")
}

func (c *catalog) genreDeletePost(w http.ResponseWriter, _ *http.Request) {
	c.rr.SendText(w, notImplemented+"genre delete POST")
}

func (c *catalog) genreUpdateGet(w http.ResponseWriter, _ *http.Request) {
	c.rr.SendText(w, notImplemented+"genre update GET")
}

func (c *catalog) genreUpdatePost(w http.ResponseWriter, _ *http.Request) {
	c.rr.SendText(w, notImplemented+"genre update POST")
}
