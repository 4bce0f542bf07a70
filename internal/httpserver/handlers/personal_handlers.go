package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"bokfor/internal/auth"
	"bokfor/internal/email"
	"bokfor/internal/models"
	"bokfor/internal/pdf"
	"bokfor/internal/services/faktura"
	"bokfor/internal/services/personal"
)

type anstalldReq struct {
	models.Anstalld
	Anstallningsdatum date `json:"anstallningsdatum"`
}

func (req anstalldReq) model() models.Anstalld {
	a := req.Anstalld
	a.Anstallningsdatum = req.Anstallningsdatum.Time
	return a
}

func ListAnstallda(svc *personal.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListAnstallda(r.Context(), identity(r).UserID)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, list)
	}
}

func CreateAnstalld(svc *personal.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req anstalldReq
		if !decodeJSON(w, r, &req) {
			return
		}
		a, err := svc.CreateAnstalld(r.Context(), identity(r).UserID, req.model())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondStatus(w, http.StatusCreated, a)
	}
}

func UpdateAnstalld(svc *personal.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		var req anstalldReq
		if !decodeJSON(w, r, &req) {
			return
		}
		a, err := svc.UpdateAnstalld(r.Context(), identity(r).UserID, id, req.model())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, a)
	}
}

func DeleteAnstalld(svc *personal.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		if err := svc.DeleteAnstalld(r.Context(), identity(r).UserID, id); err != nil {
			respondError(w, r, lg, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type utlaggReq struct {
	personal.UtlaggInput
	Datum date `json:"datum"`
}

func ListUtlagg(svc *personal.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListUtlagg(r.Context(), identity(r).UserID)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, list)
	}
}

func CreateUtlagg(svc *personal.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req utlaggReq
		if !decodeJSON(w, r, &req) {
			return
		}
		in := req.UtlaggInput
		in.Datum = req.Datum.Time
		u, err := svc.CreateUtlagg(r.Context(), identity(r).UserID, in)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondStatus(w, http.StatusCreated, u)
	}
}

func DeleteUtlagg(svc *personal.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		if err := svc.DeleteUtlagg(r.Context(), identity(r).UserID, id); err != nil {
			respondError(w, r, lg, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type lonespecReq struct {
	personal.LonespecInput
	Utbetalningsdatum date `json:"utbetalningsdatum"`
}

func ListLonespecar(svc *personal.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListLonespecar(r.Context(), identity(r).UserID, r.URL.Query().Get("period"))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, list)
	}
}

func CreateLonespec(svc *personal.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req lonespecReq
		if !decodeJSON(w, r, &req) {
			return
		}
		in := req.LonespecInput
		in.Utbetalningsdatum = req.Utbetalningsdatum.Time
		spec, err := svc.CreateLonespec(r.Context(), identity(r).UserID, in)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondStatus(w, http.StatusCreated, spec)
	}
}

func BookLonespec(svc *personal.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		spec, err := svc.BookLonespec(r.Context(), identity(r).UserID, id)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, spec)
	}
}

func renderSlip(r *http.Request, svc *personal.Service, profiles *faktura.Service, id int64) (*models.Lonespec, *models.Foretagsprofil, []byte, error) {
	uid := identity(r).UserID
	spec, err := svc.GetLonespec(r.Context(), uid, id)
	if err != nil {
		return nil, nil, nil, err
	}
	p, err := profiles.Profile(r.Context(), uid)
	if err != nil {
		return nil, nil, nil, err
	}
	b, err := pdf.SalarySlip(*spec, *p)
	if err != nil {
		return nil, nil, nil, err
	}
	return spec, p, b, nil
}

func LonespecPDF(svc *personal.Service, profiles *faktura.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		spec, _, b, err := renderSlip(r, svc, profiles, id)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondPDF(w, "Lonespec-"+spec.Period+".pdf", b)
	}
}

// SendLonespec emails the salary slip to the employee's address.
func SendLonespec(svc *personal.Service, profiles *faktura.Service, mail email.Sender, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		spec, p, b, err := renderSlip(r, svc, profiles, id)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		to := ""
		if spec.Anstalld != nil {
			to = strings.TrimSpace(spec.Anstalld.Email)
		}
		if !auth.ValidEmail(to) {
			respondMessage(w, http.StatusBadRequest, "Den anställda saknar en giltig e-postadress")
			return
		}
		if err := mail.Send(r.Context(), email.SalarySlip(to, p.Foretagsnamn, spec.Period, b)); err != nil {
			lg.Errorw("send salary slip failed", "lonespec_id", spec.ID, "user_id", spec.UserID, "error", err)
			respondMessage(w, http.StatusBadGateway, "Lönespecifikationen kunde inte skickas. Försök igen senare.")
			return
		}
		if err := svc.MarkLonespecSent(r.Context(), spec.UserID, spec.ID); err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, map[string]any{"skickad": true, "email": to})
	}
}
