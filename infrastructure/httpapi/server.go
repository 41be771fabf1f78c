// Package httpapi exposes the song search service over JSON HTTP using fiber.
//
// Routes:
//
//	POST /login           no auth      issue an access token
//	POST /search          user, admin  search with one song description
//	POST /search-in-home  user, admin  search with the mean vector of several songs
//	POST /add_song        user, admin  embed and upsert a song
//	POST /delete          admin        delete a song by id
//	GET  /vectors         admin        first page of stored payloads
//	GET  /healthz, /metrics, /schema   no auth
//
// Every error leaves as {"error": "..."} with a 4xx or 5xx status.
package httpapi

import (
	"context"
	"reflect"
	"strconv"
	"time"

	"song-search-api/application"
	"song-search-api/domain"
	"song-search-api/infrastructure/metrics"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/invopop/jsonschema"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures the HTTP layer.
type Options struct {
	Logger       *log.Logger
	Metrics      *metrics.Collectors
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server owns the fiber app and the services its handlers call.
type Server struct {
	app     *fiber.App
	songs   *application.SongService
	auth    *application.AuthService
	logger  *log.Logger
	metrics *metrics.Collectors
	schemas map[string]*jsonschema.Schema
}

// New builds the fiber app and registers every route.
func New(songs *application.SongService, auth *application.AuthService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	s := &Server{
		songs:   songs,
		auth:    auth,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		schemas: requestSchemas(),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "song-search-api",
		ErrorHandler:          s.handleError,
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		DisableStartupMessage: true,
	})

	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Format: "${status} ${method} ${path} ${latency}\n",
		Output: s.logger.StandardLog().Writer(),
	}))
	s.app.Use(s.countRequests)

	s.routes()
	return s
}

func (s *Server) routes() {
	anyone := s.requireRole(domain.RoleUser, domain.RoleAdmin)
	admin := s.requireRole(domain.RoleAdmin)

	s.app.Post("/login", s.Login)
	s.app.Post("/search", anyone, s.Search)
	s.app.Post("/search-in-home", anyone, s.SearchHome)
	s.app.Post("/add_song", anyone, s.AddSong)
	s.app.Post("/delete", admin, s.Delete)
	s.app.Get("/vectors", admin, s.Vectors)

	s.app.Get("/healthz", s.Health)
	s.app.Get("/schema", s.Schema)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))
}

// countRequests resolves the handler error itself so the final status code can be counted.
// Label values are copied because fiber reuses the request buffers they point into.
func (s *Server) countRequests(c *fiber.Ctx) error {
	if err := c.Next(); err != nil {
		if herr := s.handleError(c, err); herr != nil {
			return herr
		}
	}

	status := c.Response().StatusCode()
	route := utils.CopyString(c.Route().Path)
	if status == fiber.StatusNotFound && route == "/" && c.Path() != "/" {
		route = "unmatched"
	}
	s.metrics.Requests.WithLabelValues(route, utils.CopyString(c.Method()), strconv.Itoa(status)).Inc()
	return nil
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// requestSchemas reflects the JSON schema of every request body, keyed by route.
func requestSchemas() map[string]*jsonschema.Schema {
	songID := reflect.TypeOf(domain.SongID(""))
	r := jsonschema.Reflector{
		DoNotReference: true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == songID {
				return &jsonschema.Schema{OneOf: []*jsonschema.Schema{{Type: "string"}, {Type: "integer"}}}
			}
			return nil
		},
	}

	return map[string]*jsonschema.Schema{
		"/login":          r.Reflect(&LoginRequest{}),
		"/search":         r.Reflect(&SearchRequest{}),
		"/search-in-home": r.Reflect(&SearchHomeRequest{}),
		"/add_song":       r.Reflect(&AddSongRequest{}),
		"/delete":         r.Reflect(&DeleteRequest{}),
	}
}
