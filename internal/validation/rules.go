// Package validation sanitizes and validates submitted form fields against an ordered list of
// declarative rules. Failures are returned as data, never as errors.
package validation

import (
	"errors"
	"net/url"
	"strings"
	"time"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"library/internal/types"
)

const locationBody = "body"

// Layouts accepted by ISODate, the first one is a plain calendar date
var isoLayouts = []string{"2006-01-02", time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"}

var errNotISODate = errors.New("must be an ISO 8601 date")

var escaper = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"'", "&#x27;",
	"<", "&lt;",
	">", "&gt;",
	"/", "&#x2F;",
	`\`, "&#x5C;",
	"`", "&#96;",
)

// Input maps field name to its raw (or sanitized) string value.
type Input map[string]string

// FromForm picks the named fields out of a parsed form. Absent fields are stored as "".
func FromForm(form url.Values, fields ...string) Input {
	in := make(Input, len(fields))
	for _, f := range fields {
		in[f] = form.Get(f)
	}

	return in
}

type Transform func(string) string

func Trim(s string) string {
	return strings.TrimSpace(s)
}

// Escape replaces markup-significant characters with HTML entities.
func Escape(s string) string {
	return escaper.Replace(s)
}

type Predicate struct {
	Rule ozzo.Rule
	// Message overrides the rule's own message and the field rule's default
	Message string
}

// NonEmpty fails on an empty value.
func NonEmpty(message string) Predicate {
	return Predicate{Rule: ozzo.Required, Message: message}
}

// Alphanumeric fails on anything but ASCII letters and digits. Empty values pass.
func Alphanumeric(message string) Predicate {
	return Predicate{Rule: is.Alphanumeric, Message: message}
}

// ISODate fails unless the value parses with one of isoLayouts. Empty values pass.
func ISODate(message string) Predicate {
	return Predicate{Rule: ozzo.By(func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		if _, ok := parseISO(s); !ok {
			return errNotISODate
		}
		return nil
	}), Message: message}
}

type Rule struct {
	Field string
	// Optional skips the whole rule when the raw value is empty.
	Optional   bool
	Transforms []Transform
	Predicates []Predicate
	// ToDate converts a value that passed every predicate into a calendar date
	ToDate bool
	// Message is used for predicates without one of their own
	Message string
}

type FieldError struct {
	Param    string `json:"param"`
	Msg      string `json:"msg"`
	Value    string `json:"value"`
	Location string `json:"location"`
}

type Result struct {
	Values Input
	Dates  map[string]time.Time
	Errors []FieldError
}

func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

// Date returns the converted date of a ToDate field, nil when it was empty or invalid.
func (r *Result) Date(field string) *time.Time {
	d, ok := r.Dates[field]
	if !ok {
		return nil
	}

	return &d
}

// Sanitize applies rules in declaration order over a copy of raw.
func Sanitize(rules []Rule, raw Input) *Result {
	res := &Result{
		Values: make(Input, len(raw)),
		Dates:  make(map[string]time.Time),
	}

	for k, v := range raw {
		res.Values[k] = v
	}

	for _, rule := range rules {
		value := res.Values[rule.Field]

		if rule.Optional && value == "" {
			continue
		}

		for _, t := range rule.Transforms {
			value = t(value)
		}
		res.Values[rule.Field] = value

		failed := false
		for _, p := range rule.Predicates {
			err := ozzo.Validate(value, p.Rule)
			if err == nil {
				continue
			}

			failed = true
			msg := p.Message
			if msg == "" {
				msg = rule.Message
			}
			if msg == "" {
				msg = err.Error()
			}

			res.Errors = append(res.Errors, FieldError{
				Param:    rule.Field,
				Msg:      msg,
				Value:    value,
				Location: locationBody,
			})
		}

		if rule.ToDate && !failed && value != "" {
			if d, ok := parseISO(value); ok {
				res.Dates[rule.Field] = d
			}
		}
	}

	return res
}

func parseISO(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return types.DateOnly(t), true
		}
	}

	return time.Time{}, false
}
