package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"briefcase/internal/http/middleware"
	"briefcase/internal/service"
)

// Deps are the collaborators RegisterRoutes wires into handlers.
type Deps struct {
	DB        Pinger
	Gatherer  prometheus.Gatherer
	Auth      service.AuthService
	Users     service.UserService
	Documents service.DocumentService
	Cookie    CookieConfig
	// LoginLimit and DownloadLimit guard the two sensitive endpoints. Nil means unlimited.
	LoginLimit    fiber.Handler
	DownloadLimit fiber.Handler
	Log           logrus.FieldLogger
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	loginLimit := orNoop(d.LoginLimit)
	downloadLimit := orNoop(d.DownloadLimit)

	app.Get("/healthz", LivenessProbe())
	app.Get("/health", HealthCheck(d.DB))
	if d.Gatherer != nil {
		app.Get("/metrics", Metrics(d.Gatherer))
	}

	api := app.Group("/api")
	api.Post("/login", loginLimit, Login(d.Auth, d.Cookie, d.Log))
	api.Post("/logout", Logout(d.Cookie))

	authed := middleware.Auth(d.Auth, d.Cookie.Name)
	api.Get("/me", authed, Me(d.Users, d.Log))
	api.Get("/users", authed, ListUsers(d.Users, d.Log))

	docs := api.Group("/documents", authed)
	docs.Post("/upload", UploadDocument(d.Documents, d.Log))
	docs.Get("/", ListDocuments(d.Documents, d.Log))
	docs.Get("/:id/download", downloadLimit, DownloadDocument(d.Documents, d.Log))
}

func orNoop(h fiber.Handler) fiber.Handler {
	if h == nil {
		return middleware.Noop()
	}
	return h
}
