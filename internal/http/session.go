package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wordtales/internal/domain"
	"github.com/wordtales/internal/session"
)

// LoginRequest is accepted as JSON or as a form
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Redirect string `json:"redirect" form:"redirect"`
}

// SignupRequest registers a new account
type SignupRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Name     string `json:"name" form:"name"`
	Redirect string `json:"redirect" form:"redirect"`
}

// GoogleLoginRequest carries the Google ID token credential
type GoogleLoginRequest struct {
	Credential string `json:"credential" form:"credential"`
	Redirect   string `json:"redirect" form:"redirect"`
}

// SessionResponse is the public view of the session; the token itself is never returned
type SessionResponse struct {
	Authenticated bool                `json:"authenticated"`
	User          session.UserProfile `json:"user"`
	Loading       bool                `json:"loading"`
	Error         string              `json:"error,omitempty"`
	Redirect      string              `json:"redirect,omitempty"`
}

func newSessionResponse(snap session.Snapshot) SessionResponse {
	return SessionResponse{
		Authenticated: snap.IsAuthenticated(),
		User:          snap.User,
		Loading:       snap.Loading,
		Error:         snap.Error,
	}
}

// getSession returns the current session state
func (s *Server) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, newSessionResponse(s.session.Snapshot()))
}

// login signs in with email and password
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	err := s.session.LoginWithEmail(c.Request.Context(), req.Email, req.Password)
	s.respondSessionAction(c, err, req.Redirect)
}

// loginWithGoogle signs in with a Google credential
func (s *Server) loginWithGoogle(c *gin.Context) {
	var req GoogleLoginRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	err := s.session.LoginWithGoogle(c.Request.Context(), req.Credential)
	s.respondSessionAction(c, err, req.Redirect)
}

// signup registers and signs in
func (s *Server) signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	err := s.session.Signup(c.Request.Context(), req.Email, req.Password, req.Name)
	s.respondSessionAction(c, err, req.Redirect)
}

// logout ends the session. The in-memory session is cleared even if the stored token could
// not be removed.
func (s *Server) logout(c *gin.Context) {
	if err := s.session.Logout(c.Request.Context()); err != nil {
		respondError(c, err, "Failed to remove stored session")
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(s.session.Snapshot()))
}

// getCurrentUser refreshes and returns the signed-in user's profile
func (s *Server) getCurrentUser(c *gin.Context) {
	if err := s.session.FetchCurrentUser(c.Request.Context()); err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not authenticated"})
			return
		}
		respondError(c, err, s.session.Snapshot().Error)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(s.session.Snapshot()))
}

// respondSessionAction writes the outcome of a login-like action. On success the response
// names where to go next, honouring a ?redirect= left by the guard.
func (s *Server) respondSessionAction(c *gin.Context, err error, redirect string) {
	snap := s.session.Snapshot()
	if err != nil {
		// A storage failure after a successful round trip still leaves the user signed in
		if snap.IsAuthenticated() && errors.Is(err, domain.ErrTokenStore) {
			s.logger.Warn("session not persisted", "error", err)
		} else {
			respondError(c, err, snap.Error)
			return
		}
	}

	resp := newSessionResponse(snap)
	resp.Redirect = s.navigator.SafeRedirect(redirect)
	c.JSON(http.StatusOK, resp)
}
