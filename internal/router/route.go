// Package router holds the page route table, the navigation guard and the navigator that ties
// them to the session.
package router

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/wordtales/internal/domain"
)

// LoginPath is where the guard sends unauthenticated visitors
const LoginPath = "/login"

// View is the resolved content of a page
type View struct {
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Sections    []string `json:"sections,omitempty"`
}

// ViewFactory builds a view. It is called at most once per route after a successful load.
type ViewFactory func(ctx context.Context) (*View, error)

// Route maps a path to a lazily loaded view
type Route struct {
	Path         string
	Name         string
	View         ViewFactory
	RequiresAuth bool

	mu     sync.Mutex
	loaded *View
}

// Resolve returns the route's view, loading it on first use. A failed load is not cached and
// is retried on the next call.
func (r *Route) Resolve(ctx context.Context) (*View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded != nil {
		return r.loaded, nil
	}
	if r.View == nil {
		return nil, domain.WrapViewUnavailable(r.Name, fmt.Errorf("no view factory"))
	}

	v, err := r.View(ctx)
	if err != nil {
		return nil, domain.WrapViewUnavailable(r.Name, err)
	}
	if v == nil {
		return nil, domain.WrapViewUnavailable(r.Name, fmt.Errorf("factory returned no view"))
	}
	r.loaded = v
	return v, nil
}

// Loaded reports whether the view has been resolved
func (r *Route) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded != nil
}

// Table is an immutable set of routes built once at startup
type Table struct {
	routes []*Route
	byPath map[string]*Route
	login  *Route
}

// NewTable validates routes and builds a table from them
func NewTable(routes ...*Route) (*Table, error) {
	t := &Table{
		routes: make([]*Route, 0, len(routes)),
		byPath: make(map[string]*Route, len(routes)),
	}
	names := make(map[string]bool, len(routes))

	for i, r := range routes {
		if r == nil {
			return nil, domain.WrapRouteTableInvalid(fmt.Sprintf("route %d is nil", i))
		}
		if !strings.HasPrefix(r.Path, "/") {
			return nil, domain.WrapRouteTableInvalid(fmt.Sprintf("path %q must start with /", r.Path))
		}
		if r.Name == "" {
			return nil, domain.WrapRouteTableInvalid(fmt.Sprintf("route %s has no name", r.Path))
		}
		if r.View == nil {
			return nil, domain.WrapRouteTableInvalid(fmt.Sprintf("route %s has no view", r.Path))
		}
		if _, dup := t.byPath[r.Path]; dup {
			return nil, domain.WrapRouteTableInvalid(fmt.Sprintf("duplicate path %s", r.Path))
		}
		if names[r.Name] {
			return nil, domain.WrapRouteTableInvalid(fmt.Sprintf("duplicate name %s", r.Name))
		}

		names[r.Name] = true
		t.byPath[r.Path] = r
		t.routes = append(t.routes, r)
		if r.Path == LoginPath {
			t.login = r
		}
	}

	if t.login == nil {
		return nil, domain.WrapRouteTableInvalid("login route " + LoginPath + " is missing")
	}
	// The guard redirects here, so it must never redirect itself.
	if t.login.RequiresAuth {
		return nil, domain.WrapRouteTableInvalid("login route cannot require authentication")
	}

	return t, nil
}

// Lookup finds the route for path. A trailing slash is ignored except for the root.
func (t *Table) Lookup(path string) (*Route, error) {
	if r, ok := t.byPath[path]; ok {
		return r, nil
	}
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		if r, ok := t.byPath[strings.TrimRight(path, "/")]; ok {
			return r, nil
		}
	}
	return nil, domain.WrapRouteNotFound(path)
}

// Login returns the login route
func (t *Table) Login() *Route {
	return t.login
}

// Routes returns the routes in declaration order
func (t *Table) Routes() []*Route {
	out := make([]*Route, len(t.routes))
	copy(out, t.routes)
	return out
}
