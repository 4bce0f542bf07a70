package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"bokfor/internal/services"
	"bokfor/internal/services/admin"
	"bokfor/internal/services/analytics"
)

func actor(r *http.Request) admin.Actor {
	return admin.Actor{UserID: identity(r).RealUserID, IP: clientIP(r)}
}

func AdminSQL(svc *admin.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := svc.ExecSQL(r.Context(), actor(r), req.Query)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, res)
	}
}

func AdminUsers(svc *admin.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := svc.Users(r.Context())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, users)
	}
}

func AdminDeleteTransaktion(svc *admin.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		if err := svc.DeleteTransaction(r.Context(), actor(r), id); err != nil {
			respondError(w, r, lg, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func StartImpersonation(svc *admin.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID int64 `json:"user_id"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		st, err := svc.StartImpersonation(r.Context(), actor(r), req.UserID)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, st)
	}
}

func StopImpersonation(svc *admin.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.StopImpersonation(r.Context(), actor(r)); err != nil {
			respondError(w, r, lg, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ImpersonationStatus(svc *admin.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.ImpersonationStatus(r.Context(), identity(r).RealUserID)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, st)
	}
}

// AdminEvents filters by ?event=, ?user_id=, ?days= and ?limit=.
func AdminEvents(svc *analytics.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := analytics.Filter{Event: q.Get("event"), Limit: limitParam(r)}
		if s := q.Get("user_id"); s != "" {
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				respondError(w, r, lg, services.Invalid("Ogiltigt användar-id"))
				return
			}
			f.UserID = &uid
		}
		days := 30
		if s := q.Get("days"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 365 {
				respondError(w, r, lg, services.Invalid("Ogiltigt antal dagar"))
				return
			}
			days = n
		}
		f.Since = now().Add(-time.Duration(days) * 24 * time.Hour)
		ov, err := svc.Query(r.Context(), f)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, ov)
	}
}

func AdminLogs(svc *admin.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logs, err := svc.SecurityLogs(r.Context(), limitParam(r))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, logs)
	}
}
