package router

import (
	"context"
	"sort"
)

// Registry maps view names used in route files to their factories
type Registry map[string]ViewFactory

// Names returns the registered view names, sorted
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func staticView(v View) ViewFactory {
	return func(context.Context) (*View, error) {
		out := v
		out.Sections = append([]string(nil), v.Sections...)
		return &out, nil
	}
}

// DefaultViews returns the built-in page views
func DefaultViews() Registry {
	return Registry{
		"home": staticView(View{
			Name:        "Home",
			Title:       "WordTales",
			Description: "Learn English vocabulary through short stories",
			Sections:    []string{"intro", "daily-words-preview"},
		}),
		"login": staticView(View{
			Name:     "Login",
			Title:    "Sign in",
			Sections: []string{"email-login", "google-login"},
		}),
		"signup": staticView(View{
			Name:     "Signup",
			Title:    "Create an account",
			Sections: []string{"signup-form"},
		}),
		"stories": staticView(View{
			Name:        "Stories",
			Title:       "Stories",
			Description: "Generated stories at your level",
			Sections:    []string{"story-list", "story-generator"},
		}),
		"words": staticView(View{
			Name:        "Words",
			Title:       "Daily words",
			Description: "Today's words with Persian meanings and synonyms",
			Sections:    []string{"word-list", "level-picker"},
		}),
	}
}

// DefaultTable returns the built-in route table
func DefaultTable() *Table {
	views := DefaultViews()
	t, err := NewTable(
		&Route{Path: "/", Name: "Home", View: views["home"]},
		&Route{Path: LoginPath, Name: "Login", View: views["login"]},
		&Route{Path: "/signup", Name: "Signup", View: views["signup"]},
		&Route{Path: "/stories", Name: "Stories", View: views["stories"], RequiresAuth: true},
		&Route{Path: "/words", Name: "Words", View: views["words"], RequiresAuth: true},
	)
	if err != nil {
		panic("router: invalid default table: " + err.Error())
	}
	return t
}
