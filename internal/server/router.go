// Package server assembles the HTTP router: middleware chain, route table,
// and role guards.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"strategypilot/backend/internal/audit"
	audithandler "strategypilot/backend/internal/audit/handler"
	billinghandler "strategypilot/backend/internal/billing/handler"
	healthhandler "strategypilot/backend/internal/health/handler"
	identityhandler "strategypilot/backend/internal/identity/handler"
	imphandler "strategypilot/backend/internal/impersonation/handler"
	invitationhandler "strategypilot/backend/internal/invitation/handler"
	"strategypilot/backend/internal/platform/rbac"
	"strategypilot/backend/internal/platform/roles"
	"strategypilot/backend/internal/server/middleware"
	teamhandler "strategypilot/backend/internal/team/handler"
	userhandler "strategypilot/backend/internal/user/handler"
)

// Deps holds everything the router needs.
type Deps struct {
	Tokens        middleware.AccessValidator
	AuditRecorder *audit.Recorder
	CORSOrigins   []string

	Auth          *identityhandler.AuthHandler
	Users         *userhandler.Handler
	Teams         *teamhandler.Handler
	Invitations   *invitationhandler.Handler
	Impersonation *imphandler.Handler
	Billing       *billinghandler.Handler
	AuditLogs     *audithandler.Handler
	Health        *healthhandler.Handler
}

// publicPaths are reachable without a bearer token.
var publicPaths = map[string]bool{
	"/api/v1/auth/sign-up":                true,
	"/api/v1/auth/sign-in":                true,
	"/api/v1/auth/refresh":                true,
	"/api/v1/auth/sign-out":               true,
	"/api/v1/auth/password-reset/request": true,
	"/api/v1/auth/password-reset/confirm": true,
	"/api/v1/invitations/lookup":          true,
	"/api/v1/invitations/accept":          true,
}

// auditSkip holds route patterns whose requests are not themselves audited.
var auditSkip = map[string]bool{
	"/api/v1/audit-logs": true,
	"/api/v1/me":         true,
}

// New builds the chi router.
func New(d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "http.server")
	})

	r.Get("/healthz", d.Health.Live)
	r.Get("/readyz", d.Health.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.BearerAuth(d.Tokens, publicPaths))
		r.Use(middleware.Audit(d.AuditRecorder, auditSkip))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/sign-up", d.Auth.SignUp)
			r.Post("/sign-in", d.Auth.SignIn)
			r.Post("/sign-out", d.Auth.SignOut)
			r.Post("/refresh", d.Auth.Refresh)
			r.Post("/password-reset/request", d.Auth.RequestPasswordReset)
			r.Post("/password-reset/confirm", d.Auth.ResetPassword)
			r.Post("/confirm-email", d.Auth.ConfirmEmail)
		})

		r.Get("/me", d.Users.Me)
		r.Patch("/me", d.Users.UpdateMe)

		r.Route("/users", func(r chi.Router) {
			r.Use(rbac.RequireRole(roles.RoleTeamAdmin))
			r.Get("/", d.Users.List)
			r.With(rbac.RequireRole(roles.RoleOrgAdmin)).Patch("/{userID}/role", d.Users.UpdateRole)
			r.Patch("/{userID}/team", d.Users.AssignTeam)
			r.With(rbac.RequireRole(roles.RoleOrgAdmin)).Delete("/{userID}", d.Users.Remove)
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", d.Teams.List)
			r.With(rbac.RequireRole(roles.RoleOrgAdmin)).Post("/", d.Teams.Create)
			r.With(rbac.RequireRole(roles.RoleOrgAdmin)).Patch("/{teamID}", d.Teams.Rename)
			r.With(rbac.RequireRole(roles.RoleOrgAdmin)).Delete("/{teamID}", d.Teams.Delete)
		})

		r.Route("/invitations", func(r chi.Router) {
			r.Get("/lookup", d.Invitations.Lookup)
			r.Post("/accept", d.Invitations.Accept)
			r.With(rbac.RequireRole(roles.RoleTeamAdmin)).Post("/", d.Invitations.Create)
			r.With(rbac.RequireRole(roles.RoleTeamAdmin)).Get("/", d.Invitations.List)
			r.With(rbac.RequireRole(roles.RoleTeamAdmin)).Delete("/{invitationID}", d.Invitations.Revoke)
		})

		r.Route("/impersonation", func(r chi.Router) {
			r.With(rbac.RequireRole(roles.RoleSupport)).Post("/", d.Impersonation.Start)
			// Stop accepts the impersonated token too: revoking a grant
			// only ever reduces privilege.
			r.Delete("/", d.Impersonation.Stop)
		})

		r.Route("/billing", func(r chi.Router) {
			r.Get("/plans", d.Billing.Plans)
			r.With(rbac.RequireRole(roles.RoleOrgAdmin)).Get("/", d.Billing.Overview)
			r.With(rbac.RequireRole(roles.RoleOrgAdmin)).Post("/checkout", d.Billing.Checkout)
			r.With(rbac.RequireRole(roles.RoleOrgAdmin)).Post("/portal", d.Billing.Portal)
		})

		r.With(rbac.RequireRole(roles.RoleOrgAdmin)).Get("/audit-logs", d.AuditLogs.List)
	})

	return r
}
