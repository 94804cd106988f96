package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/simplycrm/simplycrm/pkg/audit"
	"github.com/simplycrm/simplycrm/pkg/auth"
	"github.com/simplycrm/simplycrm/pkg/contacts"
	"github.com/simplycrm/simplycrm/pkg/middleware"
	"github.com/simplycrm/simplycrm/pkg/observability"
	"github.com/simplycrm/simplycrm/pkg/orgs"
	"github.com/simplycrm/simplycrm/pkg/session"
	"github.com/simplycrm/simplycrm/pkg/shield"
	"github.com/simplycrm/simplycrm/pkg/tenant"
)

// Options holds the server's dependencies. Logger, Metrics, Tokens, and
// Shield are optional.
type Options struct {
	Sessions      *session.Manager
	Directory     orgs.Directory
	Contacts      contacts.Repository
	Authenticator *auth.Authenticator
	Tokens        auth.TokenRegistry
	Shield        *shield.Shield
	Audit         audit.Recorder
	Logger        *observability.Logger
	Metrics       *observability.Metrics
}

// Server is the API server.
type Server struct {
	router   *mux.Router
	sessions *session.Manager
	dir      orgs.Directory
	contacts contacts.Repository
	authn    *auth.Authenticator
	audit    audit.Recorder
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// NewServer creates the server and configures its routes.
func NewServer(opts Options) *Server {
	if opts.Audit == nil {
		opts.Audit = audit.Nop{}
	}
	s := &Server{
		router:   mux.NewRouter(),
		sessions: opts.Sessions,
		dir:      opts.Directory,
		contacts: opts.Contacts,
		authn:    opts.Authenticator,
		audit:    opts.Audit,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
	s.setupRoutes(opts)
	return s
}

func (s *Server) setupRoutes(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recover(s.logger))
	s.router.Use(middleware.Instrument(s.logger, s.metrics))

	s.router.HandleFunc("/healthz", s.health).Methods("GET")
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}

	api := s.router.PathPrefix("/api").Subrouter()
	if opts.Shield != nil {
		api.Use(middleware.Shield(opts.Shield))
	}
	api.Use(middleware.Auth(s.sessions, s.dir, opts.Tokens, s.logger))
	api.Use(middleware.Tenant(tenant.NewResolver(s.dir), s.sessions, s.audit, s.logger, s.metrics))

	api.HandleFunc("/auth/login", s.login).Methods("POST")
	api.HandleFunc("/auth/logout", s.logout).Methods("POST")

	api.Handle("/me", middleware.RequirePrincipal(http.HandlerFunc(s.me))).Methods("GET")
	api.Handle("/organization", middleware.RequirePrincipal(http.HandlerFunc(s.currentOrganization))).Methods("GET")

	api.Handle("/contacts", middleware.RequirePrincipal(http.HandlerFunc(s.listContacts))).Methods("GET")
	api.Handle("/contacts", middleware.RequirePrincipal(http.HandlerFunc(s.createContact))).Methods("POST")
	api.Handle("/contacts/{id:[0-9]+}", middleware.RequirePrincipal(http.HandlerFunc(s.getContact))).Methods("GET")
}

// Router returns the configured router.
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
