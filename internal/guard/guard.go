// Package guard decides whether the current identity may open a navigation
// path, mirroring the role sections of the storefront.
package guard

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/authz"
	"github.com/utafrali/storefront/internal/domain"
)

// Redirect targets.
const (
	PathLogin        = "login"
	PathUnauthorized = "unauthorized"
)

// maxRedirects bounds chains of default-child redirects.
const maxRedirects = 4

// IdentityWaiter resolves the identity, restoring it if needed.
type IdentityWaiter interface {
	WaitForIdentity(ctx context.Context) (*domain.User, error)
}

// Route is one entry of the navigation table.
type Route struct {
	Pattern    string
	Roles      []domain.Role
	Public     bool
	RedirectTo string
}

// Decision is the outcome of resolving a path.
type Decision struct {
	Path     string            `json:"path"`
	Allowed  bool              `json:"allowed"`
	Redirect string            `json:"redirect,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
}

// Guard matches paths against the navigation table.
type Guard struct {
	mux     *chi.Mux
	routes  map[string]Route
	session IdentityWaiter
}

// DefaultRoutes is the storefront navigation table.
func DefaultRoutes() []Route {
	admin := []domain.Role{domain.RoleAdmin}
	client := []domain.Role{domain.RoleClient}
	employe := []domain.Role{domain.RoleEmploye}

	return []Route{
		{Pattern: "/", RedirectTo: PathLogin},
		{Pattern: "/login", Public: true},
		{Pattern: "/register", Public: true},
		{Pattern: "/unauthorized", Public: true},

		{Pattern: "/admin", RedirectTo: "admin/categorie"},
		{Pattern: "/admin/categorie", Roles: admin},
		{Pattern: "/admin/addCategorie", Roles: admin},
		{Pattern: "/admin/updateCategorie/{id}", Roles: admin},
		{Pattern: "/admin/produit", Roles: admin},
		{Pattern: "/admin/addProduit", Roles: admin},
		{Pattern: "/admin/updateProduit/{id}", Roles: admin},
		{Pattern: "/admin/commande", Roles: admin},
		{Pattern: "/admin/promotion", Roles: admin},

		{Pattern: "/client", RedirectTo: "client/catalogue"},
		{Pattern: "/client/catalogue", Roles: client},
		{Pattern: "/client/commande", Roles: client},
		{Pattern: "/client/panier", Roles: client},
		{Pattern: "/client/validerCommande", Roles: client},

		{Pattern: "/employe", Roles: employe},
		{Pattern: "/employe/commande", Roles: employe},
	}
}

// New builds a Guard over routes.
func New(session IdentityWaiter, routes []Route) *Guard {
	g := &Guard{
		mux:     chi.NewRouter(),
		routes:  make(map[string]Route, len(routes)),
		session: session,
	}
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	for _, r := range routes {
		g.routes[r.Pattern] = r
		g.mux.Get(r.Pattern, noop)
	}
	return g
}

// Routes returns the navigation table sorted by pattern.
func (g *Guard) Routes() []Route {
	out := make([]Route, 0, len(g.routes))
	for _, r := range g.routes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pattern < out[j].Pattern })
	return out
}

func normalize(path string) string {
	return "/" + strings.Trim(strings.TrimSpace(path), "/")
}

func (g *Guard) match(path string) (Route, map[string]string, bool) {
	rctx := chi.NewRouteContext()
	if !g.mux.Match(rctx, http.MethodGet, path) {
		return Route{}, nil, false
	}
	r, ok := g.routes[rctx.RoutePattern()]
	if !ok {
		return Route{}, nil, false
	}
	var params map[string]string
	if n := len(rctx.URLParams.Keys); n > 0 {
		params = make(map[string]string, n)
		for i, k := range rctx.URLParams.Keys {
			params[k] = rctx.URLParams.Values[i]
		}
	}
	return r, params, true
}

// Resolve follows default redirects for path and checks the role
// requirements of the route it lands on. Unknown paths redirect to login;
// protected paths redirect to login without an identity and to
// unauthorized on a role mismatch.
func (g *Guard) Resolve(ctx context.Context, path string) (Decision, error) {
	p := normalize(path)

	for i := 0; ; i++ {
		r, params, ok := g.match(p)
		if !ok {
			return Decision{Path: strings.TrimPrefix(p, "/"), Redirect: PathLogin}, nil
		}
		if r.RedirectTo != "" {
			if i == maxRedirects {
				return Decision{}, fmt.Errorf("resolve %q: too many redirects", path)
			}
			p = normalize(r.RedirectTo)
			continue
		}

		d := Decision{Path: strings.TrimPrefix(p, "/"), Params: params}
		if r.Public {
			d.Allowed = true
			return d, nil
		}

		user, err := g.session.WaitForIdentity(ctx)
		if err != nil {
			d.Redirect = PathLogin
			return d, fmt.Errorf("resolve %q: %w", path, err)
		}
		switch {
		case user == nil:
			d.Redirect = PathLogin
		case !authz.Allows(user, r.Roles...):
			d.Redirect = PathUnauthorized
		default:
			d.Allowed = true
		}
		return d, nil
	}
}

// Home returns the landing path of user's role.
func Home(user *domain.User) string {
	if user == nil {
		return PathLogin
	}
	switch user.Role {
	case domain.RoleAdmin:
		return "admin"
	case domain.RoleEmploye:
		return "employe"
	case domain.RoleClient:
		return "client"
	default:
		return PathUnauthorized
	}
}
