package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed routes.yaml
var defaultRoutes []byte

// RouteTable is the page access table consumed by the route guard.
// Patterns in Exempt and HostOnly may end in '*' to match a prefix.
type RouteTable struct {
	Landing       string   `yaml:"landing"`
	RoleSelection string   `yaml:"roleSelection"`
	Exempt        []string `yaml:"exempt"`
	HostOnly      []string `yaml:"hostOnly"`
}

// LoadRoutes parses the YAML table at path, or the built-in table when path
// is empty.
func LoadRoutes(path string) (RouteTable, error) {
	raw := defaultRoutes
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return RouteTable{}, fmt.Errorf("read routes: %w", err)
		}
		raw = b
	}
	return ParseRoutes(raw)
}

// ParseRoutes decodes and validates a route table.
func ParseRoutes(raw []byte) (RouteTable, error) {
	var rt RouteTable
	if err := yaml.Unmarshal(raw, &rt); err != nil {
		return RouteTable{}, fmt.Errorf("parse routes: %w", err)
	}
	if rt.Landing == "" {
		rt.Landing = "/"
	}
	if !strings.HasPrefix(rt.RoleSelection, "/") {
		return RouteTable{}, fmt.Errorf("parse routes: roleSelection %q must be an absolute path", rt.RoleSelection)
	}
	for _, p := range append(append([]string{}, rt.Exempt...), rt.HostOnly...) {
		if !strings.HasPrefix(p, "/") {
			return RouteTable{}, fmt.Errorf("parse routes: pattern %q must be an absolute path", p)
		}
	}
	return rt, nil
}
