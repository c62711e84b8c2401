// Package views renders the catalog pages. Each page receives a map view-model whose keys
// (title, author, author_books, errors, ...) are shared with the handlers.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"library/internal/types"
	"library/internal/validation"
)

const (
	AuthorList   = "author_list"
	AuthorDetail = "author_detail"
	AuthorForm   = "author_form"
	AuthorDelete = "author_delete"
	GenreList    = "genre_list"
	Error        = "error"

	inputDateLayout = "2006-01-02"
)

//go:embed templates/*.html
var files embed.FS

var pages = []string{AuthorList, AuthorDetail, AuthorForm, AuthorDelete, GenreList, Error}

type Views struct {
	byName map[string]*template.Template
}

// Model is the view-model passed to a page.
type Model map[string]any

// Load parses the layout together with every page, failing on the first broken template.
func Load() (*Views, error) {
	v := &Views{byName: make(map[string]*template.Template, len(pages))}

	for _, name := range pages {
		t, err := template.New(name).
			Funcs(template.FuncMap{"formValue": formValue}).
			ParseFS(files, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing view %s: %w", name, err)
		}

		v.byName[name] = t
	}

	return v, nil
}

// Render executes the page fully before writing anything to w.
func (v *Views) Render(w io.Writer, name string, data Model) error {
	t, ok := v.byName[name]
	if !ok {
		return fmt.Errorf("unknown view %s", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("rendering view %s: %w", name, err)
	}

	_, err := io.Copy(w, &buf)
	return err
}

// formValue prefills author form inputs from whatever the handler put under "author":
// submitted input, a stored record, or anything else (rendered empty).
func formValue(v any, field string) string {
	switch a := v.(type) {
	case validation.Input:
		return a[field]
	case *types.Author:
		if a == nil {
			return ""
		}
		switch field {
		case "first_name":
			return a.FirstName
		case "family_name":
			return a.FamilyName
		case "date_of_birth":
			return formatInputDate(a.DateOfBirth)
		case "date_of_death":
			return formatInputDate(a.DateOfDeath)
		}
	}

	return ""
}

func formatInputDate(t *time.Time) string {
	if t == nil {
		return ""
	}

	return t.Format(inputDateLayout)
}
