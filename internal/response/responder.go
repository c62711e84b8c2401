package response

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"io"
	"log/slog"
	"net/http"
	"runtime"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"library/internal/views"
)

type Responder struct {
	Views     *views.Views
	DebugMode bool
}

// Render responds with the named view, rendering failures turn into a generic 500
func (rr *Responder) Render(w http.ResponseWriter, ctx context.Context, status int, name string, data views.Model) {
	var buf bytes.Buffer
	if err := rr.Views.Render(&buf, name, data); err != nil {
		rr.RespondAndLogError(w, ctx, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.Copy(w, &buf)
}

func (rr *Responder) Redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusFound)
}

// RespondAndLogError will respond with generic error code (500) and log with slog.LevelError level
func (rr *Responder) RespondAndLogError(w http.ResponseWriter, ctx context.Context, err error) {
	errId := uuid.NewString()
	log(ctx, slog.LevelError, err.Error(), slog.String("err_id", errId))
	rr.renderError(w, ctx, http.StatusInternalServerError, err.Error(), errId, false)
}

// RespondAndLogCustom responds with status and shows the error message even outside of debug mode
func (rr *Responder) RespondAndLogCustom(w http.ResponseWriter, ctx context.Context, err error, lvl slog.Level, status int) {
	errId := uuid.NewString()
	log(ctx, lvl, err.Error(), slog.String("err_id", errId), slog.Int("status", status))
	rr.renderError(w, ctx, status, err.Error(), errId, true)
}

func (rr *Responder) SendJson(w http.ResponseWriter, ctx context.Context, status int, data any) {
	bs, err := json.Marshal(data)
	if err != nil {
		rr.RespondAndLogError(w, ctx, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.Copy(w, bytes.NewReader(bs))
}

// SendXml encodes data with start as the root element
func (rr *Responder) SendXml(w http.ResponseWriter, ctx context.Context, contentType string, start xml.StartElement, data any) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	if err := xml.NewEncoder(&buf).EncodeElement(data, start); err != nil {
		rr.RespondAndLogError(w, ctx, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	_, _ = io.Copy(w, &buf)
}

func (rr *Responder) SendText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, text)
}

func (rr *Responder) renderError(w http.ResponseWriter, ctx context.Context, status int, message, errId string, public bool) {
	data := views.Model{
		"title":    errorTitle(status),
		"status":   status,
		"error_id": errId,
	}

	if rr.DebugMode || public {
		r, s := utf8.DecodeRuneInString(message)
		data["message"] = string(unicode.ToUpper(r)) + message[s:]
	} else {
		data["message"] = "Unknown error occurred while processing your request."
	}

	var buf bytes.Buffer
	err := rr.Views.Render(&buf, views.Error, data)
	if err == nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	} else {
		log(ctx, slog.LevelError, "cannot render error page: "+err.Error())
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		buf.Reset()
		buf.WriteString("unknown error, error id " + errId)
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.Copy(w, &buf)
}

func errorTitle(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}

	return "Error"
}

// Needed because it skips one more frame item than the slog.Log
func log(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	l := slog.Default()

	if !l.Enabled(ctx, level) {
		return
	}

	var pc uintptr
	var pcs [1]uintptr
	// skip [runtime.Callers, this function, this function's caller]
	runtime.Callers(3, pcs[:])
	pc = pcs[0]

	r := slog.NewRecord(time.Now(), level, msg, pc)
	r.AddAttrs(attrs...)
	_ = l.Handler().Handle(ctx, r)
}
