package router

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wordtales/internal/domain"
)

// routeFile is the on-disk layout of a route table
type routeFile struct {
	Routes []routeEntry `yaml:"routes"`
}

type routeEntry struct {
	Path         string `yaml:"path"`
	Name         string `yaml:"name"`
	View         string `yaml:"view"`
	RequiresAuth bool   `yaml:"requires_auth"`
}

// LoadFile reads a YAML route table from path
func LoadFile(path string, views Registry) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read route file: %w", err)
	}
	t, err := Parse(data, views)
	if err != nil {
		return nil, fmt.Errorf("route file %s: %w", path, err)
	}
	return t, nil
}

// Parse builds a table from YAML. Unknown keys and unknown view names are rejected.
//
//	routes:
//	  - path: /words
//	    name: Words
//	    view: words
//	    requires_auth: true
func Parse(data []byte, views Registry) (*Table, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f routeFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.WrapRouteTableInvalid("empty route file")
		}
		return nil, domain.WrapRouteTableInvalid(err.Error())
	}

	routes := make([]*Route, 0, len(f.Routes))
	for _, e := range f.Routes {
		factory, ok := views[e.View]
		if !ok {
			return nil, domain.WrapRouteTableInvalid(fmt.Sprintf("route %s: unknown view %q", e.Path, e.View))
		}
		routes = append(routes, &Route{
			Path:         e.Path,
			Name:         e.Name,
			View:         factory,
			RequiresAuth: e.RequiresAuth,
		})
	}

	return NewTable(routes...)
}
