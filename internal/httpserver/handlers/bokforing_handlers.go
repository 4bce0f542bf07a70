package handlers

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bokfor/internal/ledger"
	"bokfor/internal/models"
	"bokfor/internal/services"
	"bokfor/internal/services/bokforing"
)

func SearchAccounts(svc *bokforing.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		konton, err := svc.SearchAccounts(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, konton)
	}
}

func SearchForval(svc *bokforing.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		forval, err := svc.SearchForval(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, forval)
	}
}

type previewReq struct {
	Belopp   decimal.Decimal  `json:"belopp"`
	Momssats *decimal.Decimal `json:"momssats"`
}

func PreviewForval(svc *bokforing.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		var req previewReq
		if !decodeJSON(w, r, &req) {
			return
		}
		lines, err := svc.Preview(r.Context(), id, req.Belopp, req.Momssats)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		d, k := ledger.Totals(lines)
		respondJSON(w, map[string]any{"poster": lines, "debet": d, "kredit": k})
	}
}

// transaktionReq books either a förval (forval_id + belopp) or explicit
// poster.
type transaktionReq struct {
	Datum       date             `json:"datum"`
	Beskrivning string           `json:"beskrivning"`
	Kommentar   string           `json:"kommentar"`
	Fil         string           `json:"fil"`
	ForvalID    int64            `json:"forval_id"`
	Belopp      decimal.Decimal  `json:"belopp"`
	Momssats    *decimal.Decimal `json:"momssats"`
	Poster      []ledger.Line    `json:"poster"`
}

func CreateTransaktion(svc *bokforing.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req transaktionReq
		if !decodeJSON(w, r, &req) {
			return
		}
		e := bokforing.Entry{
			Datum:       req.Datum.Time,
			Beskrivning: req.Beskrivning,
			Kommentar:   req.Kommentar,
			Fil:         req.Fil,
			Lines:       req.Poster,
		}
		uid := identity(r).UserID
		var (
			t   *models.Transaktion
			err error
		)
		if req.ForvalID > 0 {
			t, err = svc.BookForval(r.Context(), uid, req.ForvalID, req.Belopp, req.Momssats, e)
		} else {
			t, err = svc.Book(r.Context(), uid, e)
		}
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondStatus(w, http.StatusCreated, t)
	}
}

// yearParam reads ?year= and defaults to the current year.
func yearParam(r *http.Request) (int, error) {
	s := r.URL.Query().Get("year")
	if s == "" {
		return now().Year(), nil
	}
	y, err := strconv.Atoi(s)
	if err != nil || y < 1900 || y > 9999 {
		return 0, services.Invalid("Ogiltigt år")
	}
	return y, nil
}

func ListTransaktioner(svc *bokforing.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, err := yearParam(r)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		list, err := svc.List(r.Context(), identity(r).UserID, year)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, list)
	}
}

func GetTransaktion(svc *bokforing.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		t, err := svc.Get(r.Context(), identity(r).UserID, id)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, t)
	}
}

func DeleteTransaktion(svc *bokforing.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), identity(r).UserID, id); err != nil {
			respondError(w, r, lg, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
