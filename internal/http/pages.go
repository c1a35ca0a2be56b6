package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wordtales/internal/router"
)

// PageResponse is the JSON rendering of a route-table page
type PageResponse struct {
	Route        string          `json:"route"`
	Path         string          `json:"path"`
	RequiresAuth bool            `json:"requires_auth"`
	View         *router.View    `json:"view"`
	Session      SessionResponse `json:"session"`
}

// guardMiddleware sends visitors without a session to the login page, carrying the requested
// path as ?redirect=
func (s *Server) guardMiddleware(route *router.Route) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := router.Guard(route, c.Request.URL.RequestURI(), s.session.IsAuthenticated())
		if decision.Redirect {
			s.logger.Debug("page guarded", "path", route.Path, "request_id", c.GetString(ctxRequestID))
			c.Redirect(http.StatusFound, decision.Location())
			c.Abort()
			return
		}
		c.Next()
	}
}

// renderPage resolves the requested page through the navigator
func (s *Server) renderPage(c *gin.Context) {
	res, err := s.navigator.Navigate(c.Request.Context(), c.Request.URL.RequestURI())
	if err != nil {
		respondError(c, err, "")
		return
	}
	// The session can end between the guard and the navigation
	if res.RedirectedFrom != "" {
		c.Redirect(http.StatusFound, router.Decision{Redirect: true, To: res.Route.Path, From: res.RedirectedFrom}.Location())
		return
	}

	c.JSON(http.StatusOK, PageResponse{
		Route:        res.Route.Name,
		Path:         res.Route.Path,
		RequiresAuth: res.Route.RequiresAuth,
		View:         res.View,
		Session:      newSessionResponse(s.session.Snapshot()),
	})
}
