package http

import (
	"net/http"
	"time"

	applog "bookkeeper/internal/log"
)

// requireSession rejects requests without a valid session cookie.
func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticated(r) {
			UnauthorizedError("login required").Write(w)
			return
		}
		next(w, r)
	}
}

func (s *Server) authenticated(r *http.Request) bool {
	c, err := r.Cookie(s.cookieName)
	if err != nil {
		return false
	}
	return s.book.Authenticated(c.Value)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}

	token, err := s.book.Login(r.Context(), p.Get("username"), p.GetRaw("password"))
	if err != nil {
		writeError(w, r, applog.OpLogin, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	})
	NewJSONResponse().JSON(map[string]string{"state": s.book.SessionState().String()}).Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.book.Logout(r.Context())
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	})
	NoContent().Write(w)
}

// handleSession reports whether this client holds the live session.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	state := "unauthenticated"
	if s.authenticated(r) {
		state = "authenticated"
	}
	NewJSONResponse().JSON(map[string]string{"state": state}).Write(w)
}
