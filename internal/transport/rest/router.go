package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qnxg/yqwork/internal/auth"
	"github.com/qnxg/yqwork/internal/department"
	"github.com/qnxg/yqwork/internal/permission"
	"github.com/qnxg/yqwork/internal/role"
	"github.com/qnxg/yqwork/internal/transport/middleware"
	"github.com/qnxg/yqwork/internal/transport/swagger"
	"github.com/qnxg/yqwork/internal/user"
	"github.com/qnxg/yqwork/internal/workhour"
)

// Handlers groups everything the router mounts. Nil handlers are skipped.
type Handlers struct {
	Health     *HealthHandler
	Auth       *auth.Handler
	Permission *permission.Handler
	Role       *role.Handler
	Department *department.Handler
	User       *user.Handler
	WorkHour   *workhour.Handler
}

type RouterOptions struct {
	IsDevelopment          bool
	MetricsEnabled         bool
	MetricsPath            string
	Gatherer               prometheus.Gatherer
	LoginRequestsPerMinute int
	AllowedOrigins         []string
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts RouterOptions, logger *slog.Logger) {
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.SecureHeaders(opts.IsDevelopment))
	router.Use(middleware.AccessLog)

	router.Get("/openapi.yml", swagger.DocumentHandler())
	router.Handle("/swagger/*", swagger.Handler())

	if opts.MetricsEnabled && opts.Gatherer != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(ar chi.Router) {
			ar.With(middleware.LoginRateLimit(opts.LoginRequestsPerMinute)).Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.RefreshToken)
			ar.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(middleware.UserContext)

			if h.Permission != nil {
				pr.Route("/permissions", func(sr chi.Router) {
					crud(sr, h.Permission.List, h.Permission.Create, h.Permission.Update, h.Permission.Delete,
						permission.PermissionQuery, permission.PermissionAdd, permission.PermissionEdit, permission.PermissionDelete)
				})
			}

			if h.Role != nil {
				pr.Route("/roles", func(sr chi.Router) {
					crud(sr, h.Role.List, h.Role.Create, h.Role.Update, h.Role.Delete,
						role.PermissionQuery, role.PermissionAdd, role.PermissionEdit, role.PermissionDelete)
					sr.With(middleware.RequirePermissions(role.PermissionQuery)).Get("/{id}", h.Role.Get)
				})
			}

			if h.Department != nil {
				pr.Route("/departments", func(sr chi.Router) {
					crud(sr, h.Department.List, h.Department.Create, h.Department.Update, h.Department.Delete,
						department.PermissionQuery, department.PermissionAdd, department.PermissionEdit, department.PermissionDelete)
					sr.With(middleware.RequirePermissions(department.PermissionQuery)).Get("/{id}", h.Department.Get)
				})
			}

			if h.User != nil {
				pr.Route("/users", func(sr chi.Router) {
					sr.Get("/me", h.User.Me)
					crud(sr, h.User.List, h.User.Create, h.User.Update, h.User.Delete,
						user.PermissionQuery, user.PermissionAdd, user.PermissionEdit, user.PermissionDelete)
					sr.With(middleware.RequirePermissions(user.PermissionQuery)).Get("/{id}", h.User.Get)
					sr.With(middleware.RequirePermissions(user.PermissionQuery)).Get("/{id}/roles", h.User.GetRoles)
					sr.With(middleware.RequirePermissions(user.PermissionEdit)).Put("/{id}/roles", h.User.AssignRoles)
				})
			}

			if h.WorkHour != nil {
				registerWorkHourRoutes(pr, h.WorkHour)
			}
		})
	})
}

func crud(r chi.Router, list, create, update, del http.HandlerFunc, query, add, edit, remove string) {
	r.With(middleware.RequirePermissions(query)).Get("/", list)
	r.With(middleware.RequirePermissions(add)).Post("/", create)
	r.With(middleware.RequirePermissions(edit)).Put("/{id}", update)
	r.With(middleware.RequirePermissions(remove)).Delete("/{id}", del)
}

func registerWorkHourRoutes(r chi.Router, h *workhour.Handler) {
	finance := middleware.RequirePermissions(workhour.PermGenerateTable)

	r.Route("/work-hours", func(wr chi.Router) {
		crud(wr, h.ListCampaigns, h.CreateCampaign, h.UpdateCampaign, h.DeleteCampaign,
			workhour.PermQuery, workhour.PermAdd, workhour.PermEdit, workhour.PermDelete)
		wr.With(middleware.RequirePermissions(workhour.PermQuery)).Get("/{id}", h.GetCampaign)
		wr.With(finance).Get("/{id}/statistics", h.Statistics)
		wr.With(finance).Post("/{id}/accept-all", h.AcceptAll)
		wr.With(finance).Post("/{id}/close-all", h.CloseAll)
	})

	// Transition permissions depend on the edge, so the workflow checks them.
	r.Route("/work-hours-record", func(rr chi.Router) {
		rr.With(finance).Get("/", h.FinanceList)
		rr.Put("/", h.Transition)
		rr.With(middleware.RequirePermissions(workhour.PermCheckDepartment)).Get("/department", h.DepartmentList)
		rr.With(middleware.RequirePermissions(workhour.PermQuery)).Get("/my", h.MyRecord)
		rr.With(middleware.RequirePermissions(workhour.PermQuery)).Put("/my", h.SubmitMyRecord)
		rr.With(finance).Put("/save", h.SaveTable)
	})
}
