package server

import (
	"encoding/xml"
	"net/http"

	"github.com/opds-community/libopds2-go/opds1"
)

const (
	atomNamespace      = "http://www.w3.org/2005/Atom"
	linkTypeNavigation = "application/atom+xml;profile=opds-catalog;kind=navigation"
	linkTypeHtml       = "text/html"

	opdsAuthorsUrl = "/opds/authors"
)

func (c *catalog) opdsAuthors(w http.ResponseWriter, r *http.Request) {
	list, err := c.authors.GetAll(r.Context())
	if err != nil {
		c.fail(w, r, err)
		return
	}

	feed := opds1.Feed{
		Title: titleAuthorList,
		Links: []opds1.Link{
			{Rel: "self", Href: opdsAuthorsUrl, TypeLink: linkTypeNavigation},
			{Rel: "start", Href: opdsAuthorsUrl, TypeLink: linkTypeNavigation},
		},
		Entries: make([]opds1.Entry, 0, len(list)),
	}

	for _, a := range list {
		entry := opds1.Entry{
			ID:    "urn:uuid:" + a.Id,
			Title: a.Name(),
			Links: []opds1.Link{{Rel: "alternate", Href: a.URL(), TypeLink: linkTypeHtml}},
		}
		entry.Content.Content = a.Lifespan()

		feed.Entries = append(feed.Entries, entry)
	}

	c.rr.SendXml(w, r.Context(), linkTypeNavigation,
		xml.StartElement{Name: xml.Name{Space: atomNamespace, Local: "feed"}}, feed)
}
