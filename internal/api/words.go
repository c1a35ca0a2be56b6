package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/wordtales/internal/apipaths"
	"github.com/wordtales/internal/domain"
)

// Word is one entry of the learner's daily word list
type Word struct {
	ID             int      `json:"id,omitempty"`
	Word           string   `json:"word"`
	PersianMeaning string   `json:"persian_meaning"`
	Synonyms       []string `json:"synonyms,omitempty"`
	CreatedAt      string   `json:"created_at,omitempty"`
}

// Story is a generated reading text
type Story struct {
	ID      int                 `json:"id"`
	Title   string              `json:"title"`
	Content string              `json:"content"`
	Topic   string              `json:"topic"`
	Level   domain.EnglishLevel `json:"level"`
}

// StoryFilter narrows ListStories. Zero values are omitted.
type StoryFilter struct {
	Topic string
	Level domain.EnglishLevel
}

type levelRequest struct {
	Level domain.EnglishLevel `json:"level"`
}

type storyRequest struct {
	Topic string              `json:"topic"`
	Level domain.EnglishLevel `json:"level"`
}

// DailyWords returns today's words for the bearer of token
func (c *Client) DailyWords(ctx context.Context, token string) ([]Word, error) {
	if token == "" {
		return nil, domain.ErrNotAuthenticated
	}
	var words []Word
	if err := c.do(ctx, http.MethodGet, apipaths.DailyWords, token, nil, "", &words); err != nil {
		return nil, err
	}
	return words, nil
}

// UpdateEnglishLevel changes the learner level used for word and story generation
func (c *Client) UpdateEnglishLevel(ctx context.Context, token string, level domain.EnglishLevel) error {
	if token == "" {
		return domain.ErrNotAuthenticated
	}
	return c.doJSON(ctx, http.MethodPatch, apipaths.EnglishLevel, token, levelRequest{Level: level}, nil)
}

// GenerateWords asks the backend for a fresh word list at level
func (c *Client) GenerateWords(ctx context.Context, token string, level domain.EnglishLevel) ([]Word, error) {
	if token == "" {
		return nil, domain.ErrNotAuthenticated
	}
	var words []Word
	if err := c.doJSON(ctx, http.MethodPost, apipaths.WordsGen, token, levelRequest{Level: level}, &words); err != nil {
		return nil, err
	}
	return words, nil
}

// ListStories lists previously generated stories
func (c *Client) ListStories(ctx context.Context, token string, filter StoryFilter) ([]Story, error) {
	if token == "" {
		return nil, domain.ErrNotAuthenticated
	}
	path := apipaths.Stories
	q := url.Values{}
	if filter.Topic != "" {
		q.Set("topic", filter.Topic)
	}
	if filter.Level != "" {
		q.Set("level", filter.Level.String())
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var stories []Story
	if err := c.do(ctx, http.MethodGet, path, token, nil, "", &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

// CreateStory generates a new story about topic at level
func (c *Client) CreateStory(ctx context.Context, token, topic string, level domain.EnglishLevel) (*Story, error) {
	if token == "" {
		return nil, domain.ErrNotAuthenticated
	}
	if topic == "" {
		return nil, domain.WrapValidationError("topic", nil)
	}
	var story Story
	if err := c.doJSON(ctx, http.MethodPost, apipaths.Stories, token, storyRequest{Topic: topic, Level: level}, &story); err != nil {
		return nil, err
	}
	return &story, nil
}
