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
)

const msgInvalidRecipient = "Ogiltig e-postadress för mottagaren"

// fakturaReq accepts plain dates for the invoice date fields.
type fakturaReq struct {
	faktura.Input
	Fakturadatum  date `json:"fakturadatum"`
	Forfallodatum date `json:"forfallodatum"`
}

func (req fakturaReq) input() faktura.Input {
	in := req.Input
	in.Fakturadatum = req.Fakturadatum.Time
	in.Forfallodatum = req.Forfallodatum.Time
	return in
}

func ListFakturor(svc *faktura.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context(), identity(r).UserID)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, list)
	}
}

func CreateFaktura(svc *faktura.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req fakturaReq
		if !decodeJSON(w, r, &req) {
			return
		}
		f, err := svc.Create(r.Context(), identity(r).UserID, req.input())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondStatus(w, http.StatusCreated, withTotals(f))
	}
}

// fakturaView adds the computed totals to a stored invoice.
type fakturaView struct {
	*models.Faktura
	Summering faktura.Totals `json:"summering"`
}

func withTotals(f *models.Faktura) fakturaView {
	return fakturaView{Faktura: f, Summering: faktura.Compute(f.Rader, f.RotRut)}
}

func GetFaktura(svc *faktura.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		f, err := svc.Get(r.Context(), identity(r).UserID, id)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, withTotals(f))
	}
}

func UpdateFaktura(svc *faktura.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		var req fakturaReq
		if !decodeJSON(w, r, &req) {
			return
		}
		f, err := svc.Update(r.Context(), identity(r).UserID, id, req.input())
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, withTotals(f))
	}
}

func DeleteFaktura(svc *faktura.Service, lg *zap.SugaredLogger) http.HandlerFunc {
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

func BookFaktura(svc *faktura.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		f, err := svc.Book(r.Context(), identity(r).UserID, id)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, withTotals(f))
	}
}

type paymentReq struct {
	Datum date `json:"datum"`
}

// payment decodes an optional body; a missing date means today.
func payment(w http.ResponseWriter, r *http.Request) (paymentReq, bool) {
	var req paymentReq
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return req, false
	}
	if req.Datum.IsZero() {
		req.Datum.Time = now()
	}
	return req, true
}

func MarkFakturaPaid(svc *faktura.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		req, ok := payment(w, r)
		if !ok {
			return
		}
		f, err := svc.MarkPaid(r.Context(), identity(r).UserID, id, req.Datum.Time)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, withTotals(f))
	}
}

func MarkRotRutPaid(svc *faktura.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		req, ok := payment(w, r)
		if !ok {
			return
		}
		f, err := svc.MarkRotRutPaid(r.Context(), identity(r).UserID, id, req.Datum.Time)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, withTotals(f))
	}
}

func renderInvoice(r *http.Request, svc *faktura.Service, id int64) (*models.Faktura, *models.Foretagsprofil, []byte, error) {
	uid := identity(r).UserID
	f, err := svc.Get(r.Context(), uid, id)
	if err != nil {
		return nil, nil, nil, err
	}
	p, err := svc.Profile(r.Context(), uid)
	if err != nil {
		return nil, nil, nil, err
	}
	b, err := pdf.Invoice(*f, *p)
	if err != nil {
		return nil, nil, nil, err
	}
	return f, p, b, nil
}

func FakturaPDF(svc *faktura.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		f, _, b, err := renderInvoice(r, svc, id)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondPDF(w, "Faktura-"+f.Fakturanummer+".pdf", b)
	}
}

type sendReq struct {
	Email string `json:"email"`
}

// SendFaktura emails the invoice PDF. The recipient is checked before
// anything else is loaded; an empty address falls back to the customer's.
func SendFaktura(svc *faktura.Service, mail email.Sender, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sendReq
		if !decodeJSON(w, r, &req) {
			return
		}
		to := strings.TrimSpace(req.Email)
		if to != "" && !auth.ValidEmail(to) {
			respondMessage(w, http.StatusBadRequest, msgInvalidRecipient)
			return
		}
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		f, p, b, err := renderInvoice(r, svc, id)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		if to == "" {
			to = strings.TrimSpace(f.Kundemail)
		}
		if !auth.ValidEmail(to) {
			respondMessage(w, http.StatusBadRequest, msgInvalidRecipient)
			return
		}
		company := p.Foretagsnamn
		if company == "" {
			company = identity(r).Email
		}
		if err := mail.Send(r.Context(), email.Invoice(to, p.Email, company, f.Fakturanummer, b)); err != nil {
			lg.Errorw("send invoice failed", "faktura_id", f.ID, "user_id", f.UserID, "error", err)
			respondMessage(w, http.StatusBadGateway, "Fakturan kunde inte skickas. Försök igen senare.")
			return
		}
		if err := svc.MarkSent(r.Context(), f.UserID, f.ID); err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, map[string]any{"skickad": true, "email": to})
	}
}

func GetProfile(svc *faktura.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Profile(r.Context(), identity(r).UserID)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, p)
	}
}

func SaveProfile(svc *faktura.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p models.Foretagsprofil
		if !decodeJSON(w, r, &p) {
			return
		}
		saved, err := svc.SaveProfile(r.Context(), identity(r).UserID, p)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, saved)
	}
}
