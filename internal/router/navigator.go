package router

import (
	"context"
	"log/slog"
	"net/url"
	"sync"

	"github.com/wordtales/internal/domain"
)

// SessionReader is the view of the session the navigator needs. *session.Store implements it.
type SessionReader interface {
	IsAuthenticated() bool
}

// Resolution is the result of one navigation
type Resolution struct {
	Route          *Route
	View           *View
	RedirectedFrom string // requested path when the guard redirected, else ""
}

// Navigator resolves paths against a table, consulting the session on every transition
type Navigator struct {
	table   *Table
	session SessionReader
	logger  *slog.Logger

	mu      sync.Mutex
	current *Route

	listenersMu sync.Mutex
	listeners   map[int]func(Resolution)
	nextID      int
}

// NewNavigator creates a navigator over table
func NewNavigator(table *Table, session SessionReader, logger *slog.Logger) *Navigator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{
		table:     table,
		session:   session,
		logger:    logger,
		listeners: make(map[int]func(Resolution)),
	}
}

// Table returns the route table
func (n *Navigator) Table() *Table {
	return n.table
}

// Current returns the route of the last successful navigation, nil before the first
func (n *Navigator) Current() *Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Decide runs the guard for target without navigating
func (n *Navigator) Decide(target string) (*Route, Decision, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, Decision{}, domain.WrapValidationError("path", err)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	route, err := n.table.Lookup(path)
	if err != nil {
		return nil, Decision{}, err
	}
	return route, Guard(route, target, n.session.IsAuthenticated()), nil
}

// Navigate moves to target. A guarded route redirects to the login route once.
func (n *Navigator) Navigate(ctx context.Context, target string) (*Resolution, error) {
	route, decision, err := n.Decide(target)
	if err != nil {
		n.logger.Debug("navigation failed", "path", target, "error", err)
		return nil, err
	}

	res := Resolution{Route: route}
	if decision.Redirect {
		n.logger.Info("navigation redirected to login", "from", decision.From)
		res.Route = n.table.Login()
		res.RedirectedFrom = decision.From
	}

	view, err := res.Route.Resolve(ctx)
	if err != nil {
		n.logger.Warn("view load failed", "route", res.Route.Name, "error", err)
		return nil, err
	}
	res.View = view

	n.mu.Lock()
	n.current = res.Route
	n.mu.Unlock()

	n.notify(res)
	return &res, nil
}

// OnNavigate registers l to run after every successful navigation
func (n *Navigator) OnNavigate(l func(Resolution)) (unsubscribe func()) {
	n.listenersMu.Lock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = l
	n.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.listenersMu.Lock()
			delete(n.listeners, id)
			n.listenersMu.Unlock()
		})
	}
}

func (n *Navigator) notify(res Resolution) {
	n.listenersMu.Lock()
	ls := make([]func(Resolution), 0, len(n.listeners))
	for _, l := range n.listeners {
		ls = append(ls, l)
	}
	n.listenersMu.Unlock()

	for _, l := range ls {
		l(res)
	}
}

// SafeRedirect returns target if it is a known, local route path, else "/". It is used after a
// login to honour a ?redirect= without allowing open redirects.
func (n *Navigator) SafeRedirect(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" || target == "" {
		return "/"
	}
	if _, err := n.table.Lookup(u.Path); err != nil {
		return "/"
	}
	return u.RequestURI()
}
