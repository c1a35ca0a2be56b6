package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wordtales/internal/api"
	"github.com/wordtales/internal/config"
	"github.com/wordtales/internal/domain"
	"github.com/wordtales/internal/router"
	"github.com/wordtales/internal/session"
)

// LearningAPI is the part of the backend the console proxies for a signed-in user.
// *api.Client implements it.
type LearningAPI interface {
	DailyWords(ctx context.Context, token string) ([]api.Word, error)
	UpdateEnglishLevel(ctx context.Context, token string, level domain.EnglishLevel) error
	GenerateWords(ctx context.Context, token string, level domain.EnglishLevel) ([]api.Word, error)
	ListStories(ctx context.Context, token string, filter api.StoryFilter) ([]api.Story, error)
	CreateStory(ctx context.Context, token, topic string, level domain.EnglishLevel) (*api.Story, error)
}

// Deps are the collaborators the console serves
type Deps struct {
	Session   *session.Store
	Learning  LearningAPI
	Navigator *router.Navigator
	Logger    *slog.Logger
}

// Server is the local console: a JSON surface over the session store, the learning API and
// the page route table
type Server struct {
	config    *config.Config
	session   *session.Store
	learning  LearningAPI
	navigator *router.Navigator
	logger    *slog.Logger
	engine    *gin.Engine
}

const (
	maxBodySize  = 1 << 20 // 1MB max request body
	readTimeout  = 30 * time.Second
	writeTimeout = 120 * time.Second // story generation can be slow upstream
	idleTimeout  = 120 * time.Second

	defaultListenAddress = "127.0.0.1:5173"

	requestIDHeader = "X-Request-ID"
	ctxRequestID    = "request_id"
	ctxToken        = "token"
)

// NewServer creates the console server
func NewServer(cfg *config.Config, deps Deps) *Server {
	// Set Gin mode based on environment; tests pin TestMode themselves
	if gin.Mode() != gin.TestMode {
		if cfg.Environment == "production" {
			gin.SetMode(gin.ReleaseMode)
		} else {
			gin.SetMode(gin.DebugMode)
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	// Middleware - order matters
	engine.Use(requestIDMiddleware())
	engine.Use(securityHeadersMiddleware())
	engine.Use(originCheckMiddleware(allowedOrigins(cfg), logger))
	engine.Use(cacheControlMiddleware())
	engine.Use(loggerMiddleware(logger))
	engine.Use(jsonBodyLimitMiddleware(maxBodySize))

	s := &Server{
		config:    cfg,
		session:   deps.Session,
		learning:  deps.Learning,
		navigator: deps.Navigator,
		logger:    logger,
		engine:    engine,
	}

	s.setupRoutes()

	return s
}

// Handler exposes the engine, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// HTTPServer returns an http.Server bound to the configured address with timeouts set
func (s *Server) HTTPServer() *http.Server {
	addr := s.config.ListenAddress
	if addr == "" {
		addr = defaultListenAddress
	}
	return &http.Server{
		Addr:           addr,
		Handler:        s.engine,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	return s.HTTPServer().ListenAndServe()
}

// requestIDMiddleware tags every request with an ID, reusing a valid incoming one
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// securityHeadersMiddleware adds security-related HTTP headers
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if c.Request.TLS != nil {
			c.Writer.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

// allowedOrigins returns the console's own origins plus the configured extras. A loopback or
// unspecified listen host is reachable under every loopback name.
func allowedOrigins(cfg *config.Config) map[string]bool {
	allowed := make(map[string]bool)
	for _, o := range cfg.CORS.AllowedOrigins {
		allowed[o] = true
	}

	addr := cfg.ListenAddress
	if addr == "" {
		addr = defaultListenAddress
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return allowed
	}
	switch host {
	case "", "0.0.0.0", "::", "127.0.0.1", "::1", "localhost":
		for _, h := range []string{"127.0.0.1", "localhost", "::1"} {
			allowed["http://"+net.JoinHostPort(h, port)] = true
		}
	default:
		allowed["http://"+net.JoinHostPort(host, port)] = true
	}
	return allowed
}

// originCheckMiddleware answers CORS for allowed origins and rejects state-changing requests
// sent from any other origin. Requests without Origin and Referer (CLI clients) pass.
func originCheckMiddleware(allowed map[string]bool, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		c.Writer.Header().Add("Vary", "Origin")

		if allowed[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, "+requestIDHeader)
			c.Writer.Header().Set("Access-Control-Max-Age", "86400") // 24 hours
		}

		if !isStateChanging(c.Request.Method) {
			c.Next()
			return
		}

		source := origin
		if source == "" {
			if ref := c.GetHeader("Referer"); ref != "" {
				source = refererOrigin(ref)
			}
		}
		if source != "" && !allowed[source] {
			logger.Warn("cross-origin request rejected",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"origin", source,
				"request_id", c.GetString(ctxRequestID),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "Cross-origin request rejected"})
			return
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func isStateChanging(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead:
		return false
	default:
		return true
	}
}

// refererOrigin reduces a Referer URL to scheme://host. Unparseable values yield a string no
// allowed origin can match.
func refererOrigin(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "invalid"
	}
	return u.Scheme + "://" + u.Host
}

// cacheControlMiddleware disables caching of session and API responses; page views depend on
// the session too
func cacheControlMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Writer.Header().Set("Pragma", "no-cache")
		c.Writer.Header().Set("Expires", "0")
		c.Next()
	}
}

// jsonBodyLimitMiddleware limits the size of JSON and form request bodies
func jsonBodyLimitMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodDelete && c.Request.Method != http.MethodOptions {
			contentType := c.GetHeader("Content-Type")
			if strings.Contains(contentType, "application/json") || strings.Contains(contentType, "application/x-www-form-urlencoded") {
				if c.Request.ContentLength > maxBytes {
					c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Request body too large"})
					return
				}
				c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
			}
		}
		c.Next()
	}
}

// loggerMiddleware logs HTTP requests once they complete
func loggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.InfoContext(c.Request.Context(), "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString(ctxRequestID),
		)
	}
}
