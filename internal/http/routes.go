package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wordtales/internal/apipaths"
)

// setupRoutes configures the API and page routes
func (s *Server) setupRoutes() {
	// Health check endpoint (no session required)
	s.engine.GET(apipaths.Health, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "wordtales",
		})
	})

	s.setupSessionRoutes()

	// Learning routes - require a session
	learning := s.engine.Group("")
	learning.Use(s.requireSession())
	{
		learning.GET(apipaths.ConsoleWords, s.getDailyWords)
		learning.PATCH(apipaths.ConsoleLevel, s.updateLevel)
		learning.POST(apipaths.ConsoleGen, s.generateWords)
		learning.GET(apipaths.ConsoleStories, s.listStories)
		learning.POST(apipaths.ConsoleStories, s.createStory)
	}

	s.setupPageRoutes()

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
	})
}

func (s *Server) setupSessionRoutes() {
	s.engine.GET(apipaths.Session, s.getSession)
	s.engine.POST(apipaths.SessionLogin, s.login)
	s.engine.POST(apipaths.SessionGoogle, s.loginWithGoogle)
	s.engine.POST(apipaths.SessionSignup, s.signup)
	s.engine.POST(apipaths.SessionLogout, s.logout)
	s.engine.GET(apipaths.SessionMe, s.getCurrentUser)
}

// setupPageRoutes mounts every route-table page behind the navigation guard
func (s *Server) setupPageRoutes() {
	for _, route := range s.navigator.Table().Routes() {
		if strings.HasPrefix(route.Path, "/api/") || route.Path == "/api" {
			s.logger.Warn("skipping page route shadowed by the API", "path", route.Path, "name", route.Name)
			continue
		}
		s.engine.GET(route.Path, s.guardMiddleware(route), s.renderPage)
	}
}
