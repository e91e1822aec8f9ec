// Package guard decides, for every page navigation, whether the browser
// may see the page or must be sent elsewhere.
package guard

import (
	"fmt"
	"path"
	"strings"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/util"

	"github.com/iliyamo/villa-web/internal/config"
	"github.com/iliyamo/villa-web/internal/model"
	"github.com/iliyamo/villa-web/internal/store"
)

// MsgChecking is shown while the decision cannot be made yet.
const MsgChecking = "Checking access..."

// Decision is the outcome of a guard evaluation.  Exactly one of Allow,
// Pending or a non-empty Redirect holds.
type Decision struct {
	Allow    bool
	Pending  bool
	Redirect string
}

func allow() Decision             { return Decision{Allow: true} }
func redirect(to string) Decision { return Decision{Redirect: to} }

func (d Decision) String() string {
	switch {
	case d.Pending:
		return "pending"
	case d.Redirect != "":
		return "redirect:" + d.Redirect
	default:
		return "allow"
	}
}

// Policy is what Evaluate needs to know about the route table.
type Policy interface {
	Landing() string
	RoleSelection() string
	Exempt(path string) bool
	HostOnly(path string) bool
	Permits(role model.Role, path string) bool
}

// Evaluate applies the access rules in order:
//
//  1. signed in without a role: everything except role selection and the
//     exempt (OAuth callback) routes redirects to role selection;
//  2. role selection while signed out redirects to the landing page;
//  3. host-only pages redirect to the landing page unless the signed-in
//     role is permitted.
//
// Until the session is hydrated, or while an auth call is in flight, the
// decision is Pending.
func Evaluate(p Policy, st store.State, rawPath string) Decision {
	if !st.Hydrated || st.Auth.Loading {
		return Decision{Pending: true}
	}
	pth := Clean(rawPath)
	auth := st.Auth
	signedIn := auth.IsAuthenticated && auth.User != nil

	if signedIn && !auth.User.Role.Valid() && pth != p.RoleSelection() && !p.Exempt(pth) {
		return redirect(p.RoleSelection())
	}
	if pth == p.RoleSelection() && !auth.IsAuthenticated {
		return redirect(p.Landing())
	}
	if p.HostOnly(pth) {
		if !signedIn || !p.Permits(auth.User.Role, pth) {
			return redirect(p.Landing())
		}
	}
	return allow()
}

// Clean normalizes a request path for matching: rooted, no trailing slash,
// no dot segments.
func Clean(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return path.Clean("/" + p)
}

const rbacModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch(r.obj, p.obj)
`

// Guard is the Policy built from a route table.  Host-only access is
// decided by a casbin enforcer granting the host role every host-only
// pattern.
type Guard struct {
	routes config.RouteTable
	enf    *casbin.Enforcer
}

// New builds a Guard.
func New(rt config.RouteTable) (*Guard, error) {
	m, err := casbinmodel.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("guard model: %w", err)
	}
	enf, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("guard enforcer: %w", err)
	}
	for _, pat := range rt.HostOnly {
		if _, err := enf.AddPolicy(model.RoleHost.String(), pat); err != nil {
			return nil, fmt.Errorf("guard policy %s: %w", pat, err)
		}
	}
	return &Guard{routes: rt, enf: enf}, nil
}

// Check evaluates st against the guard's route table.
func (g *Guard) Check(st store.State, path string) Decision { return Evaluate(g, st, path) }

func (g *Guard) Landing() string       { return g.routes.Landing }
func (g *Guard) RoleSelection() string { return g.routes.RoleSelection }

func (g *Guard) Exempt(p string) bool {
	for _, pat := range g.routes.Exempt {
		if matches(p, pat) {
			return true
		}
	}
	return false
}

func (g *Guard) HostOnly(p string) bool {
	for _, pat := range g.routes.HostOnly {
		if matches(p, pat) {
			return true
		}
	}
	return false
}

// Permits asks the enforcer.  Enforcement errors deny.
func (g *Guard) Permits(role model.Role, p string) bool {
	if !role.Valid() {
		return false
	}
	ok, err := g.enf.Enforce(role.String(), p)
	return err == nil && ok
}

// matches treats a trailing '*' as a wildcard and otherwise matches the
// pattern itself or anything below it.
func matches(p, pat string) bool {
	if strings.HasSuffix(pat, "*") {
		return util.KeyMatch(p, pat)
	}
	return p == pat || strings.HasPrefix(p, strings.TrimSuffix(pat, "/")+"/")
}
