package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wordtales/internal/api"
	"github.com/wordtales/internal/domain"
)

// LevelRequest selects an English level
type LevelRequest struct {
	Level string `json:"level" binding:"required"`
}

// CreateStoryRequest asks for a new story
type CreateStoryRequest struct {
	Topic string `json:"topic" binding:"required"`
	Level string `json:"level" binding:"required"`
}

// requireSession rejects requests without a session and stashes the token for handlers
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := s.session.Token()
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "Authentication required",
				Details: "Please login to continue",
			})
			return
		}
		c.Set(ctxToken, token)
		c.Next()
	}
}

func (s *Server) getDailyWords(c *gin.Context) {
	words, err := s.learning.DailyWords(c.Request.Context(), c.GetString(ctxToken))
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, nonNil(words))
}

func (s *Server) updateLevel(c *gin.Context) {
	level, ok := bindLevel(c)
	if !ok {
		return
	}
	if err := s.learning.UpdateEnglishLevel(c.Request.Context(), c.GetString(ctxToken), level); err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"level": level})
}

func (s *Server) generateWords(c *gin.Context) {
	level, ok := bindLevel(c)
	if !ok {
		return
	}
	words, err := s.learning.GenerateWords(c.Request.Context(), c.GetString(ctxToken), level)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, nonNil(words))
}

func (s *Server) listStories(c *gin.Context) {
	filter := api.StoryFilter{Topic: c.Query("topic")}
	if raw := c.Query("level"); raw != "" {
		level, err := domain.ParseEnglishLevel(raw)
		if err != nil {
			respondError(c, err, "")
			return
		}
		filter.Level = level
	}

	stories, err := s.learning.ListStories(c.Request.Context(), c.GetString(ctxToken), filter)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, nonNil(stories))
}

func (s *Server) createStory(c *gin.Context) {
	var req CreateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	level, err := domain.ParseEnglishLevel(req.Level)
	if err != nil {
		respondError(c, err, "")
		return
	}

	story, err := s.learning.CreateStory(c.Request.Context(), c.GetString(ctxToken), req.Topic, level)
	if err != nil {
		respondError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, story)
}

func bindLevel(c *gin.Context) (domain.EnglishLevel, bool) {
	var req LevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return "", false
	}
	level, err := domain.ParseEnglishLevel(req.Level)
	if err != nil {
		respondError(c, err, "")
		return "", false
	}
	return level, true
}

// nonNil keeps empty lists encoded as [] rather than null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
