package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/lightbnb/lightbnb/pkg/lightbnb"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config controls authentication and request handling
type Config struct {
	JWTSecret          string
	TokenTTL           time.Duration
	LoginRateLimit     int
	LoginRateWindow    time.Duration
	CORSAllowedOrigins []string
	SecureCookies      bool
	Logger             *zerolog.Logger
}

// Handler serves the LightBnB HTTP API on top of a lightbnb.Service.
type Handler struct {
	service  lightbnb.Service
	auth     *TokenAuth
	cfg      Config
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewHandler creates a Handler. Zero config values fall back to a one day
// token lifetime and ten logins per minute per client IP.
func NewHandler(service lightbnb.Service, cfg Config) *Handler {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.LoginRateLimit <= 0 {
		cfg.LoginRateLimit = 10
	}
	if cfg.LoginRateWindow <= 0 {
		cfg.LoginRateWindow = time.Minute
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	logger := log.Logger.With().Str("component", "api").Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Handler{
		service:  service,
		auth:     NewTokenAuth(cfg.JWTSecret, cfg.TokenTTL),
		cfg:      cfg,
		validate: newValidator(),
		logger:   logger,
	}
}

// Auth returns the token issuer used by the handler
func (h *Handler) Auth() *TokenAuth {
	return h.auth
}

// Middleware returns the middleware stack applied by Routes: request ids,
// logging and metrics, panic recovery, CORS and token verification.
func (h *Handler) Middleware() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		RequestLogger(h.logger),
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins:   h.cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		h.auth.Verifier(),
	}
}

// Routes returns a router serving the user, property and reservation
// endpoints with the Middleware stack applied.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.Middleware()...)
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the API endpoints on r without adding middleware.
// The caller must install at least the token verifier.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.RegisterUser)
		r.With(httprate.LimitByIP(h.cfg.LoginRateLimit, h.cfg.LoginRateWindow)).Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.With(RequireUser).Get("/me", h.Me)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/properties", h.ListProperties)
		r.With(RequireUser).Post("/properties", h.CreateProperty)
		r.With(RequireUser).Get("/reservations", h.ListReservations)
	})
}

// decodeJSON decodes a request body into v and runs struct validation.
func (h *Handler) decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequestf("request body is empty")
		}
		return badRequestf("invalid request body: %v", err)
	}

	if err := h.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return badRequestf("%s failed %s validation", humanize(fe.Field()), fe.Tag())
		}
		return badRequestf("invalid request: %v", err)
	}
	return nil
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func currentUserID(r *http.Request) (int64, error) {
	id, ok := UserIDFromContext(r.Context())
	if !ok {
		return 0, fmt.Errorf("%w: missing user", errUnauthorized)
	}
	return id, nil
}
