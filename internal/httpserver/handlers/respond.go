package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"bokfor/internal/auth"
	"bokfor/internal/ledger"
	"bokfor/internal/services"
	"bokfor/internal/services/account"
	"bokfor/internal/services/rapporter"
)

const (
	msgInternal   = "Något gick fel. Försök igen senare."
	msgBadRequest = "Ogiltig förfrågan"
	msgNotFound   = "Hittades inte"
	maxBodyBytes  = 1 << 20
)

func respondJSON(w http.ResponseWriter, v interface{}) {
	respondStatus(w, http.StatusOK, v)
}

func respondStatus(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

type errorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func respondMessage(w http.ResponseWriter, status int, msg string) {
	respondStatus(w, status, errorBody{Error: msg})
}

// sentence upper-cases the first letter of a Go-style error text.
func sentence(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

// respondError maps service errors onto status codes. Unexpected errors
// are logged and answered with a generic message.
func respondError(w http.ResponseWriter, r *http.Request, lg *zap.SugaredLogger, err error) {
	if ve, ok := services.AsValidation(err); ok {
		respondStatus(w, http.StatusBadRequest, errorBody{Error: ve.Message, Details: ve.Details})
		return
	}
	var ce *services.ConflictError
	switch {
	case errors.As(err, &ce):
		respondMessage(w, http.StatusConflict, ce.Message)
	case errors.Is(err, services.ErrNotFound):
		respondMessage(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, services.ErrForbidden):
		respondMessage(w, http.StatusForbidden, auth.MsgAccessDenied)
	case errors.Is(err, account.ErrInvalidCredentials):
		respondMessage(w, http.StatusUnauthorized, sentence(err.Error()))
	case errors.Is(err, account.ErrNotVerified):
		respondMessage(w, http.StatusForbidden, sentence(err.Error()))
	case errors.Is(err, account.ErrInvalidLink):
		respondMessage(w, http.StatusBadRequest, sentence(err.Error()))
	case errors.Is(err, ledger.ErrInvalidYear), errors.Is(err, ledger.ErrInvalidMonth):
		respondMessage(w, http.StatusBadRequest, sentence(err.Error()))
	case errors.Is(err, rapporter.ErrReportFailed):
		respondMessage(w, http.StatusInternalServerError, sentence(rapporter.ErrReportFailed.Error()))
	default:
		lg.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondMessage(w, http.StatusInternalServerError, msgInternal)
	}
}

// decodeJSON reads a bounded JSON body into v and answers 400 on failure.
// URL-encoded form posts are accepted too; their values map onto string
// fields by json tag.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	var err error
	if isForm(r) {
		err = decodeForm(r, v)
	} else {
		err = json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	}
	if err != nil {
		respondMessage(w, http.StatusBadRequest, msgBadRequest)
		return false
	}
	return true
}

func isForm(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "application/x-www-form-urlencoded"
}

func decodeForm(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return err
	}
	fields := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		fields[k] = r.PostForm.Get(k)
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// idParam parses a positive numeric URL parameter and answers 404
// otherwise.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondMessage(w, http.StatusNotFound, msgNotFound)
		return 0, false
	}
	return id, true
}

func identity(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func clientOf(r *http.Request) account.Client {
	return account.Client{IP: clientIP(r), UserAgent: r.UserAgent()}
}

func respondPDF(w http.ResponseWriter, filename string, b []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	_, _ = w.Write(b)
}
