package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"bokfor/internal/auth"
	"bokfor/internal/services/account"
)

type signupReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func Signup(svc *account.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupReq
		if !decodeJSON(w, r, &req) {
			return
		}
		u, err := svc.Signup(r.Context(), req.Email, req.Password, req.Name, clientOf(r))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondStatus(w, http.StatusCreated, map[string]any{
			"id":      u.ID,
			"email":   u.Email,
			"message": "Kontot är skapat. Kontrollera din e-post för att verifiera adressen.",
		})
	}
}

func Verify(svc *account.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Token string `json:"token"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := svc.Verify(r.Context(), req.Token, clientOf(r)); err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, map[string]any{"verified": true})
	}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login answers with the token and also sets it as an HttpOnly cookie.
func Login(svc *account.Service, secureCookie bool, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := svc.Login(r.Context(), req.Email, req.Password, clientOf(r))
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     auth.SessionCookie,
			Value:    res.Token,
			Path:     "/",
			Expires:  res.ExpiresAt,
			HttpOnly: true,
			Secure:   secureCookie,
			SameSite: http.SameSiteLaxMode,
		})
		respondJSON(w, res)
	}
}

func Logout(svc *account.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := identity(r)
		if err := svc.Logout(r.Context(), id.RealUserID, id.SessionID, clientOf(r)); err != nil {
			respondError(w, r, lg, err)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: auth.SessionCookie, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1, HttpOnly: true})
		w.WriteHeader(http.StatusNoContent)
	}
}

func PasswordResetRequest(svc *account.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := svc.RequestPasswordReset(r.Context(), req.Email, clientOf(r)); err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, map[string]any{
			"message": "Om adressen finns registrerad har vi skickat en länk för att återställa lösenordet.",
		})
	}
}

func PasswordResetConfirm(svc *account.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Token    string `json:"token"`
			Password string `json:"password"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := svc.ConfirmPasswordReset(r.Context(), req.Token, req.Password, clientOf(r)); err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, map[string]any{"message": "Lösenordet är ändrat. Logga in med ditt nya lösenord."})
	}
}

func ChangePassword(svc *account.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Current string `json:"current_password"`
			New     string `json:"new_password"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		id := identity(r)
		if err := svc.ChangePassword(r.Context(), id.RealUserID, id.SessionID, req.Current, req.New, clientOf(r)); err != nil {
			respondError(w, r, lg, err)
			return
		}
		respondJSON(w, map[string]any{"message": "Lösenordet är ändrat."})
	}
}

// Me returns the effective user and, while impersonating, the admin
// behind it.
func Me(svc *account.Service, isAdmin func(string) bool, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := identity(r)
		u, err := svc.Me(r.Context(), id.UserID)
		if err != nil {
			respondError(w, r, lg, err)
			return
		}
		out := map[string]any{
			"id":            u.ID,
			"email":         u.Email,
			"name":          u.Name,
			"verified":      u.Verified,
			"is_admin":      isAdmin(id.Email),
			"impersonating": id.Impersonating,
		}
		if id.Impersonating {
			out["real_user_id"] = id.RealUserID
		}
		respondJSON(w, out)
	}
}
