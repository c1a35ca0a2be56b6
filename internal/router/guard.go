package router

import "net/url"

// Decision is the outcome of guarding one navigation
type Decision struct {
	Redirect bool
	To       string // target when Redirect is set
	From     string // originally requested path
}

// Location returns the redirect target with the requested path attached as ?redirect=
func (d Decision) Location() string {
	if !d.Redirect {
		return ""
	}
	return d.To + "?" + url.Values{"redirect": {d.From}}.Encode()
}

// Guard decides whether a visitor may enter route. requested is the full path the visitor
// asked for (including any query) and is carried to the login page.
func Guard(route *Route, requested string, authenticated bool) Decision {
	if requested == "" {
		requested = route.Path
	}
	if route.RequiresAuth && !authenticated {
		return Decision{Redirect: true, To: LoginPath, From: requested}
	}
	return Decision{From: requested}
}
