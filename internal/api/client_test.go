package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wordtales/internal/domain"
	"github.com/wordtales/internal/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", 5*time.Second, logger.Discard())
}

func TestClient_LoginWithEmail_SendsForm(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("expected form content type, got %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm.Get("username"); got != "a@b.com" {
			t.Errorf("expected username a@b.com, got %q", got)
		}
		if got := r.PostForm.Get("password"); got != "pw" {
			t.Errorf("expected password pw, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"T","token_type":"bearer","user":{"id":1}}`))
	})

	resp, err := client.LoginWithEmail(context.Background(), "a@b.com", "pw")
	if err != nil {
		t.Fatalf("LoginWithEmail() error = %v", err)
	}
	if resp.AccessToken != "T" {
		t.Errorf("AccessToken = %q, want T", resp.AccessToken)
	}
	if string(resp.User) != `{"id":1}` {
		t.Errorf("User = %s, want {\"id\":1}", resp.User)
	}
}

func TestClient_JSONEndpoints(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		call     func(c *Client) (*AuthResponse, error)
		wantBody map[string]string
	}{
		{
			name: "google",
			path: "/auth/google",
			call: func(c *Client) (*AuthResponse, error) {
				return c.LoginWithGoogle(context.Background(), "google-credential")
			},
			wantBody: map[string]string{"token": "google-credential"},
		},
		{
			name: "signup",
			path: "/auth/signup",
			call: func(c *Client) (*AuthResponse, error) {
				return c.Signup(context.Background(), SignupRequest{Email: "a@b.com", Password: "pw", Name: "Ann"})
			},
			wantBody: map[string]string{"email": "a@b.com", "password": "pw", "name": "Ann"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != tt.path {
					t.Errorf("expected path %s, got %s", tt.path, r.URL.Path)
				}
				if ct := r.Header.Get("Content-Type"); ct != "application/json" {
					t.Errorf("expected JSON content type, got %q", ct)
				}
				var body map[string]string
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Fatalf("decode body: %v", err)
				}
				for k, v := range tt.wantBody {
					if body[k] != v {
						t.Errorf("body[%q] = %q, want %q", k, body[k], v)
					}
				}
				w.Write([]byte(`{"access_token":"T2","token_type":"bearer"}`))
			})

			resp, err := tt.call(client)
			if err != nil {
				t.Fatalf("call error = %v", err)
			}
			if resp.AccessToken != "T2" {
				t.Errorf("AccessToken = %q, want T2", resp.AccessToken)
			}
			if len(resp.User) != 0 {
				t.Errorf("expected no user, got %s", resp.User)
			}
		})
	}
}

func TestClient_ErrorDetail(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{name: "string detail", status: http.StatusBadRequest, body: `{"detail":"email taken"}`, wantDetail: "email taken"},
		{name: "validation detail", status: http.StatusUnprocessableEntity, body: `{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address","type":"value_error"}]}`, wantDetail: "value is not a valid email address"},
		{name: "no detail", status: http.StatusInternalServerError, body: `Internal Server Error`, wantDetail: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.Signup(context.Background(), SignupRequest{Email: "a@b.com", Password: "pw"})
			if err == nil {
				t.Fatal("expected error but got nil")
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if apiErr.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", apiErr.Detail, tt.wantDetail)
			}
			detail, ok := ErrorDetail(err)
			if ok != (tt.wantDetail != "") || detail != tt.wantDetail {
				t.Errorf("ErrorDetail() = %q, %v", detail, ok)
			}
		})
	}
}

func TestClient_MissingAccessToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token_type":"bearer"}`))
	})

	if _, err := client.LoginWithGoogle(context.Background(), "cred"); err == nil {
		t.Fatal("expected error for response without access_token")
	}
}

func TestClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url, time.Second, logger.Discard())
	_, err := client.LoginWithEmail(context.Background(), "a@b.com", "pw")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if !errors.Is(err, domain.ErrNetworkOperation) {
		t.Errorf("expected network domain error, got %v", err)
	}
}

func TestClient_Me(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/me" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer T" {
			t.Errorf("Authorization = %q, want Bearer T", got)
		}
		w.Write([]byte(`{"id":7,"email":"a@b.com"}`))
	})

	user, err := client.Me(context.Background(), "T")
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if string(user) != `{"id":7,"email":"a@b.com"}` {
		t.Errorf("unexpected user %s", user)
	}

	if _, err := client.Me(context.Background(), ""); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated without token, got %v", err)
	}
}

func TestClient_Words(t *testing.T) {
	var gotLevel string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer T" {
			t.Errorf("Authorization = %q, want Bearer T", got)
		}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/daily-words/":
			w.Write([]byte(`[{"id":1,"word":"happy","persian_meaning":"خوشحال","synonyms":["joyful","glad"]}]`))
		case r.Method == http.MethodPatch && r.URL.Path == "/users/english-level":
			body, _ := io.ReadAll(r.Body)
			var req map[string]string
			json.Unmarshal(body, &req)
			gotLevel = req["level"]
			w.Write([]byte(`{"id":1}`))
		case r.Method == http.MethodPost && r.URL.Path == "/words/generate":
			w.Write([]byte(`[{"word":"ephemeral","persian_meaning":"زودگذر"}]`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	words, err := client.DailyWords(ctx, "T")
	if err != nil {
		t.Fatalf("DailyWords() error = %v", err)
	}
	if len(words) != 1 || words[0].Word != "happy" || len(words[0].Synonyms) != 2 {
		t.Errorf("unexpected words %+v", words)
	}

	if err := client.UpdateEnglishLevel(ctx, "T", domain.LevelAdvanced); err != nil {
		t.Fatalf("UpdateEnglishLevel() error = %v", err)
	}
	if gotLevel != "advanced" {
		t.Errorf("level sent = %q, want advanced", gotLevel)
	}

	generated, err := client.GenerateWords(ctx, "T", domain.LevelAdvanced)
	if err != nil {
		t.Fatalf("GenerateWords() error = %v", err)
	}
	if len(generated) != 1 || generated[0].Word != "ephemeral" {
		t.Errorf("unexpected generated words %+v", generated)
	}

	if _, err := client.DailyWords(ctx, ""); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestClient_Stories(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if r.URL.Query().Get("topic") != "space" || r.URL.Query().Get("level") != "beginner" {
				t.Errorf("unexpected query %q", r.URL.RawQuery)
			}
			w.Write([]byte(`[{"id":3,"title":"Moon","content":"...","topic":"space","level":"beginner"}]`))
		case http.MethodPost:
			var req map[string]string
			json.NewDecoder(r.Body).Decode(&req)
			if req["topic"] != "sea" || req["level"] != "intermediate" {
				t.Errorf("unexpected body %v", req)
			}
			w.Write([]byte(`{"id":4,"title":"Waves","content":"...","topic":"sea","level":"intermediate"}`))
		}
	})
	ctx := context.Background()

	stories, err := client.ListStories(ctx, "T", StoryFilter{Topic: "space", Level: domain.LevelBeginner})
	if err != nil {
		t.Fatalf("ListStories() error = %v", err)
	}
	if len(stories) != 1 || stories[0].Title != "Moon" {
		t.Errorf("unexpected stories %+v", stories)
	}

	story, err := client.CreateStory(ctx, "T", "sea", domain.LevelIntermediate)
	if err != nil {
		t.Fatalf("CreateStory() error = %v", err)
	}
	if story.ID != 4 || story.Level != domain.LevelIntermediate {
		t.Errorf("unexpected story %+v", story)
	}

	if _, err := client.CreateStory(ctx, "T", "", domain.LevelBeginner); !domain.IsValidationError(err) {
		t.Errorf("expected validation error for empty topic, got %v", err)
	}
}
