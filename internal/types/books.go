package types

import "time"

const (
	authorUrlPrefix = "/catalog/author/"
	bookUrlPrefix   = "/catalog/book/"
	genreUrlPrefix  = "/catalog/genre/"

	displayDateLayout = "January 2, 2006"
)

type Author struct {
	Id          string     `json:"id"`
	FirstName   string     `json:"first_name"`
	FamilyName  string     `json:"family_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	DateOfDeath *time.Time `json:"date_of_death,omitempty"`
}

// URL is the detail page of the author, derived from its identity.
func (a *Author) URL() string {
	return authorUrlPrefix + a.Id
}

// Name is "family, first", or whichever part is present.
func (a *Author) Name() string {
	if a.FamilyName != "" && a.FirstName != "" {
		return a.FamilyName + ", " + a.FirstName
	}

	return a.FamilyName + a.FirstName
}

// Lifespan formats dates of birth and death, either may be missing.
func (a *Author) Lifespan() string {
	if a.DateOfBirth == nil && a.DateOfDeath == nil {
		return ""
	}

	return formatDate(a.DateOfBirth) + " - " + formatDate(a.DateOfDeath)
}

type Book struct {
	Id      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Author  string `json:"author_id"`
}

func (b *Book) URL() string {
	return bookUrlPrefix + b.Id
}

type Genre struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

func (g *Genre) URL() string {
	return genreUrlPrefix + g.Id
}

// DateOnly truncates t to a calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}

	return t.Format(displayDateLayout)
}
