package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bokfor/internal/auth"
	"bokfor/internal/config"
	"bokfor/internal/email"
	"bokfor/internal/httpserver/handlers"
	"bokfor/internal/metrics"
	"bokfor/internal/ratelimit"
	"bokfor/internal/services/account"
	"bokfor/internal/services/admin"
	"bokfor/internal/services/analytics"
	"bokfor/internal/services/bokforing"
	"bokfor/internal/services/faktura"
	"bokfor/internal/services/personal"
	"bokfor/internal/services/rapporter"
)

// Deps is everything the router wires into handlers.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Log    *zap.SugaredLogger
	Issuer *auth.Issuer
	Mail   email.Sender
}

func NewRouter(d Deps) http.Handler {
	cfg, db, lg := d.Config, d.DB, d.Log

	accounts := account.New(db, lg, d.Issuer, d.Mail, cfg.BaseURL)
	bf := bokforing.New(db, lg)
	fakturor := faktura.New(db, lg)
	pers := personal.New(db, lg)
	reports := rapporter.New(db, lg)
	events := analytics.New(db, lg)
	adm := admin.New(db, lg, bf)

	authLimit := ratelimit.New("auth", cfg.RateLimitRequests, cfg.RateLimitWindow)
	mailLimit := ratelimit.New("email", cfg.RateLimitRequests, cfg.RateLimitWindow)
	secureCookie := strings.HasPrefix(cfg.BaseURL, "https://")

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger, metrics.Middleware)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(public chi.Router) {
		public.Use(authLimit.Middleware)
		public.Post("/v1/auth/signup", handlers.Signup(accounts, lg))
		public.Post("/v1/auth/verify", handlers.Verify(accounts, lg))
		public.Post("/v1/auth/login", handlers.Login(accounts, secureCookie, lg))
		public.Post("/v1/auth/password-reset", handlers.PasswordResetRequest(accounts, lg))
		public.Post("/v1/auth/password-reset/confirm", handlers.PasswordResetConfirm(accounts, lg))
	})

	r.Group(func(protected chi.Router) {
		protected.Use(auth.JWTAuth(auth.GormSessions{DB: db}, d.Issuer, cfg.IsAdmin))
		protected.Get("/v1/me", handlers.Me(accounts, cfg.IsAdmin, lg))
		protected.Post("/v1/auth/logout", handlers.Logout(accounts, lg))
		protected.With(authLimit.Middleware).Post("/v1/auth/password", handlers.ChangePassword(accounts, lg))

		protected.Get("/v1/konton", handlers.SearchAccounts(bf, lg))
		protected.Get("/v1/forval", handlers.SearchForval(bf, lg))
		protected.Post("/v1/forval/{id}/preview", handlers.PreviewForval(bf, lg))
		protected.Post("/v1/transaktioner", handlers.CreateTransaktion(bf, lg))
		protected.Get("/v1/transaktioner", handlers.ListTransaktioner(bf, lg))
		protected.Get("/v1/transaktioner/{id}", handlers.GetTransaktion(bf, lg))
		protected.Delete("/v1/transaktioner/{id}", handlers.DeleteTransaktion(bf, lg))

		protected.Get("/v1/fakturor", handlers.ListFakturor(fakturor, lg))
		protected.Post("/v1/fakturor", handlers.CreateFaktura(fakturor, lg))
		protected.Get("/v1/fakturor/{id}", handlers.GetFaktura(fakturor, lg))
		protected.Put("/v1/fakturor/{id}", handlers.UpdateFaktura(fakturor, lg))
		protected.Delete("/v1/fakturor/{id}", handlers.DeleteFaktura(fakturor, lg))
		protected.Post("/v1/fakturor/{id}/bokfor", handlers.BookFaktura(fakturor, lg))
		protected.Post("/v1/fakturor/{id}/betald", handlers.MarkFakturaPaid(fakturor, lg))
		protected.Post("/v1/fakturor/{id}/rotrut-betald", handlers.MarkRotRutPaid(fakturor, lg))
		protected.Get("/v1/fakturor/{id}/pdf", handlers.FakturaPDF(fakturor, lg))
		protected.With(mailLimit.Middleware).Post("/v1/fakturor/{id}/skicka", handlers.SendFaktura(fakturor, d.Mail, lg))
		protected.Get("/v1/foretagsprofil", handlers.GetProfile(fakturor, lg))
		protected.Put("/v1/foretagsprofil", handlers.SaveProfile(fakturor, lg))

		protected.Get("/v1/anstallda", handlers.ListAnstallda(pers, lg))
		protected.Post("/v1/anstallda", handlers.CreateAnstalld(pers, lg))
		protected.Put("/v1/anstallda/{id}", handlers.UpdateAnstalld(pers, lg))
		protected.Delete("/v1/anstallda/{id}", handlers.DeleteAnstalld(pers, lg))
		protected.Get("/v1/utlagg", handlers.ListUtlagg(pers, lg))
		protected.Post("/v1/utlagg", handlers.CreateUtlagg(pers, lg))
		protected.Delete("/v1/utlagg/{id}", handlers.DeleteUtlagg(pers, lg))
		protected.Get("/v1/lonespecar", handlers.ListLonespecar(pers, lg))
		protected.Post("/v1/lonespecar", handlers.CreateLonespec(pers, lg))
		protected.Post("/v1/lonespecar/{id}/bokfor", handlers.BookLonespec(pers, lg))
		protected.Get("/v1/lonespecar/{id}/pdf", handlers.LonespecPDF(pers, fakturor, lg))
		protected.With(mailLimit.Middleware).Post("/v1/lonespecar/{id}/skicka", handlers.SendLonespec(pers, fakturor, d.Mail, lg))

		protected.Get("/v1/rapporter/balans", handlers.BalanceReport(reports, lg))
		protected.Get("/v1/rapporter/resultat", handlers.IncomeStatement(reports, lg))
		protected.Get("/v1/rapporter/ne-bilaga", handlers.NEBilaga(reports, lg))
		protected.Get("/v1/rapporter/huvudbok", handlers.GeneralLedger(reports, lg))
		protected.Get("/v1/rapporter/verifikationer", handlers.Verifications(reports, lg))

		protected.Post("/v1/events", handlers.TrackEvent(events, lg))
		protected.With(mailLimit.Middleware).Post("/v1/feedback", handlers.Feedback(d.Mail, cfg.AdminEmails, lg))
		protected.Get("/v1/logs", handlers.MyLogs(db, lg))

		protected.Group(func(adminR chi.Router) {
			adminR.Use(auth.RequireAdmin(cfg.IsAdmin))
			adminR.Post("/v1/admin/sql", handlers.AdminSQL(adm, lg))
			adminR.Get("/v1/admin/users", handlers.AdminUsers(adm, lg))
			adminR.Delete("/v1/admin/transaktioner/{id}", handlers.AdminDeleteTransaktion(adm, lg))
			adminR.Post("/v1/admin/impersonate", handlers.StartImpersonation(adm, lg))
			adminR.Delete("/v1/admin/impersonate", handlers.StopImpersonation(adm, lg))
			adminR.Get("/v1/admin/impersonate", handlers.ImpersonationStatus(adm, lg))
			adminR.Get("/v1/admin/events", handlers.AdminEvents(events, lg))
			adminR.Get("/v1/admin/logs", handlers.AdminLogs(adm, lg))
		})
	})
	return r
}
