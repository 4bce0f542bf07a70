package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"bokfor/internal/services/rapporter"
)

// yearQuery returns ?year= or the current year when absent.
func yearQuery(r *http.Request) string {
	if y := r.URL.Query().Get("year"); y != "" {
		return y
	}
	return strconv.Itoa(now().Year())
}

func BalanceReport(svc *rapporter.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := svc.Balance(r.Context(), identity(r).UserID, yearQuery(r), r.URL.Query().Get("month"))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, rep)
	}
}

func IncomeStatement(svc *rapporter.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := svc.IncomeStatement(r.Context(), identity(r).UserID, yearQuery(r))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, rep)
	}
}

func NEBilaga(svc *rapporter.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := svc.NEBilaga(r.Context(), identity(r).UserID, yearQuery(r))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, rep)
	}
}

func GeneralLedger(svc *rapporter.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := svc.GeneralLedger(r.Context(), identity(r).UserID, yearQuery(r), r.URL.Query().Get("month"))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, rep)
	}
}

func Verifications(svc *rapporter.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := svc.Verifications(r.Context(), identity(r).UserID, yearQuery(r))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, rep)
	}
}
