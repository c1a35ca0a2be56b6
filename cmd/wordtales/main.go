package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wordtales/internal/api"
	"github.com/wordtales/internal/config"
	"github.com/wordtales/internal/domain"
	consolehttp "github.com/wordtales/internal/http"
	"github.com/wordtales/internal/logger"
	"github.com/wordtales/internal/router"
	"github.com/wordtales/internal/session"
	"github.com/wordtales/internal/tokenstore"
)

const usage = `usage: wordtales <command> [flags]

commands:
  serve     run the local console (default)
  login     sign in with -email and -password (or WORDTALES_PASSWORD)
  google    sign in with a Google ID token (-credential)
  logout    end the session and remove the stored token
  status    print whether a session is held
  whoami    fetch the signed-in user's profile
  words     print today's words
`

// app bundles the wired components every command uses
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	tokens  tokenstore.Store
	client  *api.Client
	session *session.Store
}

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)

	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	appLogger := logger.InitLogger(cfg.Environment, cfg.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	// Close before exiting; os.Exit skips deferred calls.
	err = a.run(ctx, cmd, args)
	if cerr := a.tokens.Close(); cerr != nil {
		appLogger.Warn("failed to close token store", "error", cerr)
	}
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// sessionError prefers the message the session recorded and falls back to err when there is none.
func sessionError(message string, err error) error {
	if message == "" {
		return err
	}
	return errors.New(message)
}

func newApp(ctx context.Context, cfg *config.Config, appLogger *slog.Logger) (*app, error) {
	tokens, err := tokenstore.Open(ctx, cfg.TokenStore, appLogger)
	if err != nil {
		return nil, err
	}

	client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, appLogger)

	store, err := session.NewStore(ctx, client, tokens, appLogger)
	if err != nil {
		tokens.Close()
		return nil, err
	}

	return &app{cfg: cfg, logger: appLogger, tokens: tokens, client: client, session: store}, nil
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	switch cmd {
	case "serve":
		if err := fs.Parse(args); err != nil {
			return err
		}
		return a.serve(ctx)

	case "login":
		email := fs.String("email", "", "account email")
		password := fs.String("password", os.Getenv("WORDTALES_PASSWORD"), "account password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := a.session.LoginWithEmail(ctx, *email, *password); err != nil {
			return sessionError(a.session.Snapshot().Error, err)
		}
		fmt.Println("Logged in")
		return nil

	case "google":
		credential := fs.String("credential", "", "Google ID token")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := a.session.LoginWithGoogle(ctx, *credential); err != nil {
			return sessionError(a.session.Snapshot().Error, err)
		}
		fmt.Println("Logged in with Google")
		return nil

	case "logout":
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := a.session.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil

	case "status":
		if err := fs.Parse(args); err != nil {
			return err
		}
		if !a.session.IsAuthenticated() {
			fmt.Println("Not logged in")
			return nil
		}
		if exp, ok := session.TokenExpiry(a.session.Token()); ok {
			fmt.Printf("Logged in (token expires %s)\n", exp.Local().Format(time.RFC1123))
		} else {
			fmt.Println("Logged in")
		}
		return nil

	case "whoami":
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := a.session.FetchCurrentUser(ctx); err != nil {
			if errors.Is(err, domain.ErrNotAuthenticated) {
				return err
			}
			return sessionError(a.session.Snapshot().Error, err)
		}
		fmt.Println(string(a.session.Snapshot().User))
		return nil

	case "words":
		if err := fs.Parse(args); err != nil {
			return err
		}
		words, err := a.client.DailyWords(ctx, a.session.Token())
		if err != nil {
			return err
		}
		for _, w := range words {
			fmt.Printf("%-20s %s\n", w.Word, w.PersianMeaning)
		}
		return nil

	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) serve(ctx context.Context) error {
	table := router.DefaultTable()
	if a.cfg.RoutesFile != "" {
		t, err := router.LoadFile(a.cfg.RoutesFile, router.DefaultViews())
		if err != nil {
			return err
		}
		table = t
	}
	navigator := router.NewNavigator(table, a.session, a.logger)

	if a.cfg.Session.ExpiryCheck != "" {
		watcher, err := session.NewWatcher(a.session, a.cfg.Session.ExpiryCheck, a.logger)
		if err != nil {
			return err
		}
		watcher.Check()
		watcher.Start()
		defer watcher.Stop()
	}

	srv := consolehttp.NewServer(a.cfg, consolehttp.Deps{
		Session:   a.session,
		Learning:  a.client,
		Navigator: navigator,
		Logger:    a.logger,
	})
	server := srv.HTTPServer()

	a.logger.Info("configuration loaded",
		"environment", a.cfg.Environment,
		"api_base_url", a.cfg.API.BaseURL,
		"token_store", a.cfg.TokenStore.Backend,
		"routes", len(table.Routes()),
		"authenticated", a.session.IsAuthenticated(),
	)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("console listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("console server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down console...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("console shutdown error", "error", err)
	}
	a.logger.Info("console stopped")
	return nil
}
