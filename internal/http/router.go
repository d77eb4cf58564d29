package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/geocoder89/eventlite/internal/http/handlers"
	"github.com/geocoder89/eventlite/internal/http/middlewares"
	"github.com/geocoder89/eventlite/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps carries everything the router wires together; the repositories are
// interfaces so tests can mount fakes or the in-memory store.
type Deps struct {
	Events        handlers.EventsRepository
	Registrations handlers.RegistrationCreator
	Jobs          handlers.JobsCreator
	Banners       handlers.BannerSaver

	Ping      func() error
	UploadDir string

	// MaxBodyBytes caps the request body; zero falls back to 15 MiB.
	MaxBodyBytes int64

	Prom    *observability.Prom
	Metrics http.Handler
	Limiter *middlewares.RateLimiter
	Tracing bool
}

func NewRouter(log *slog.Logger, d Deps) *gin.Engine {
	cfgEnv := os.Getenv("APP_ENV")

	if cfgEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware([]string{"http://localhost:3000"}))

	maxBody := d.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 15 << 20
	}
	r.Use(middlewares.MaxBodyBytes(maxBody))

	if d.Tracing {
		r.Use(otelgin.Middleware("eventlite-api"))
	}

	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	// health
	h := handlers.NewHealthHandler(d.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	// uploaded banners are served statically under /uploads
	if d.UploadDir != "" {
		r.Static("/uploads", d.UploadDir)
	}

	// wire up handlers
	eventsHandler := handlers.NewEventsHandler(d.Events, d.Banners)
	formsHandler := handlers.NewFormsHandler(d.Events)
	registrationHandler := handlers.NewRegistrationHandler(d.Registrations, d.Jobs)

	r.POST("/events", eventsHandler.CreateEvent)
	r.GET("/events", eventsHandler.ListEvents)
	// gin's router cannot mix a static "create" segment with ":id", so the
	// create-form page is dispatched from inside the wildcard route.
	r.GET("/events/:id", func(c *gin.Context) {
		if c.Param("id") == "create" {
			formsHandler.CreateForm(c)
			return
		}
		eventsHandler.GetEventById(c)
	})
	r.PUT("/events/:id", eventsHandler.UpdateEvent)
	r.DELETE("/events/:id", eventsHandler.DeleteEvent)
	r.GET("/events/:id/edit", formsHandler.EditForm)
	r.GET("/events/:id/registrations", registrationHandler.ListForEvent)
	r.GET("/events/:id/register", formsHandler.RegisterForm)

	// event registration route, rate limited when redis is configured
	register := registrationHandler.Register
	if d.Limiter != nil {
		r.POST("/events/:id/register", d.Limiter.Middleware(middlewares.KeyByIP), register)
	} else {
		r.POST("/events/:id/register", register)
	}

	return r
}
