package importer

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/opds-community/libopds2-go/opds1"
)

func (im *Importer) fetch(ctx context.Context, feedUrl *url.URL) (*opds1.Feed, error) {
	l := im.Logger.With(slog.String("feed", feedUrl.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedUrl.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building feed request: %w", err)
	}

	res, err := im.Client.Do(req)
	if err != nil {
		l.Error("Failed to fetch feed: " + err.Error())
		return nil, fmt.Errorf("fetching feed: %w", err)
	}

	var bs []byte
	func() {
		defer res.Body.Close()
		bs, err = io.ReadAll(res.Body)
	}()

	if err != nil {
		l.Error("Failed to read body of feed: " + err.Error())
		return nil, fmt.Errorf("fetching feed (reading response): %w", err)
	}

	if res.StatusCode != http.StatusOK {
		l.Error("Unexpected status of feed: " + res.Status)
		return nil, fmt.Errorf("fetching feed: unexpected status %s", res.Status)
	}

	var feed opds1.Feed
	err = xml.Unmarshal(removeDisallowedCodepoints(bs, l), &feed)

	if err != nil {
		l.Error("Failed to unmarshal feed: " + err.Error())
		return nil, fmt.Errorf("unmarshalling feed: %w", err)
	}

	return &feed, nil
}

type clLogger struct {
	logger        *slog.Logger
	levelSkipLink slog.Leveler
}

// chooseLink picks the single link for which matcher reports no mismatch, the first one wins
func chooseLink(ctx context.Context, links []opds1.Link, matcher func(link *opds1.Link) string, l clLogger) *opds1.Link {
	var ret *opds1.Link

	for _, link := range links {
		link.Rel = strings.TrimSpace(link.Rel)
		link.TypeLink = strings.TrimSpace(link.TypeLink)

		if matcher != nil {
			mismatch := matcher(&link)
			if mismatch != "" {
				if l.levelSkipLink != nil {
					l.logger.LogAttrs(ctx, l.levelSkipLink.Level(), "Skip non-matching link: "+mismatch)
				}

				continue
			}
		}

		if ret != nil {
			l.logger.Warn("Skip duplicate matching link: " + link.Href)
			continue
		}

		ret = &link
	}

	return ret
}

// Inspect each rune for being a disallowed character.
// Some catalogs include those characters
func removeDisallowedCodepoints(bs []byte, l *slog.Logger) []byte {
	ret := make([]byte, 0, len(bs))
	buf := bs

	for len(buf) > 0 {
		r, size := utf8.DecodeRune(buf)
		if r == utf8.RuneError && size == 1 {
			l.Warn("Going to fail XML parsing because the bytes do not represent valid UTF8")
			return bs
		}

		if isInCharacterRange(r) {
			ret = append(ret, buf[:size]...)
		} else {
			l.Warn("Removed invalid rune from XML")
		}

		buf = buf[size:]
	}

	return ret
}

// Decide whether the given rune is in the XML Character Range, per
// the Char production of https://www.xml.com/axml/testaxml.htm,
// Section 2.2 Characters.
func isInCharacterRange(r rune) (inrange bool) {
	return r == 0x09 ||
		r == 0x0A ||
		r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}
