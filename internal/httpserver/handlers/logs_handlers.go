package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bokfor/internal/email"
	"bokfor/internal/services"
	"bokfor/internal/services/analytics"
)

func limitParam(r *http.Request) int {
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return n
}

// MyLogs lists the signed-in user's own security log.
func MyLogs(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := identity(r).RealUserID
		logs, err := services.SecurityLogs(r.Context(), db, &uid, limitParam(r))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, logs)
	}
}

type eventReq struct {
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties"`
}

func TrackEvent(svc *analytics.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req eventReq
		if !decodeJSON(w, r, &req) {
			return
		}
		uid := identity(r).UserID
		if err := svc.Track(r.Context(), &uid, req.Event, req.Properties); err != nil {
			respondError(w, r, lg, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

const maxFeedback = 5000

// Feedback forwards a user message to the admin allowlist.
func Feedback(mail email.Sender, admins []string, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message string `json:"message"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		msg := strings.TrimSpace(req.Message)
		if msg == "" || len(msg) > maxFeedback {
			respondError(w, r, lg, services.Invalid("Meddelandet måste vara mellan 1 och %d tecken", maxFeedback))
			return
		}
		if len(admins) == 0 {
			lg.Warnw("feedback dropped, no admin recipients", "user_id", identity(r).UserID)
			w.WriteHeader(http.StatusAccepted)
			return
		}
		m := email.Feedback(admins[0], identity(r).Email, msg)
		m.To = admins
		if err := mail.Send(r.Context(), m); err != nil {
			lg.Errorw("send feedback failed", "user_id", identity(r).UserID, "error", err)
			respondMessage(w, http.StatusBadGateway, "Meddelandet kunde inte skickas. Försök igen senare.")
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}
