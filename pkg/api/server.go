package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tgsentry/tgsentry/pkg/httputil"
	"github.com/tgsentry/tgsentry/pkg/observability"
	"github.com/tgsentry/tgsentry/pkg/rules"
	"github.com/tgsentry/tgsentry/pkg/security"
)

// Server represents our API server
type Server struct {
	evaluator *security.Evaluator
	registry  *rules.Registry
	roles     *security.RoleResolver
	masks     *security.MaskStore
	logger    *observability.Logger
	router    *mux.Router
}

// NewServer creates a new API server
func NewServer(evaluator *security.Evaluator, registry *rules.Registry, roles *security.RoleResolver, masks *security.MaskStore, logger *observability.Logger) *Server {
	s := &Server{
		evaluator: evaluator,
		registry:  registry,
		roles:     roles,
		masks:     masks,
		logger:    logger,
		router:    mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	// Authorization check
	s.router.HandleFunc("/api/v1/check", s.check).Methods("POST")

	// Registry routes
	s.router.HandleFunc("/api/v1/commands", s.listCommands).Methods("GET")
	s.router.HandleFunc("/api/v1/commands", s.registerCommand).Methods("POST")
	s.router.HandleFunc("/api/v1/modules/{module}", s.unregisterModule).Methods("DELETE")
	s.router.HandleFunc("/api/v1/rules/resolve", s.resolveRules).Methods("POST")

	// Targeted rule routes
	s.router.HandleFunc("/api/v1/rules", s.listRules).Methods("GET")
	s.router.HandleFunc("/api/v1/rules", s.grantRule).Methods("POST")
	s.router.HandleFunc("/api/v1/rules/{target_type}/{target_id}", s.revokeRules).Methods("DELETE")

	// Mask routes
	s.router.HandleFunc("/api/v1/masks", s.getMasks).Methods("GET")
	s.router.HandleFunc("/api/v1/masks/bounding", s.setBoundingBit).Methods("PUT")
	s.router.HandleFunc("/api/v1/masks/commands/{command}", s.setCommandBit).Methods("PUT")

	// Membership routes
	s.router.HandleFunc("/api/v1/groups/{group}/members", s.listMembers).Methods("GET")
	s.router.HandleFunc("/api/v1/groups/{group}/members", s.addMember).Methods("POST")
	s.router.HandleFunc("/api/v1/groups/{group}/members/{id}", s.removeMember).Methods("DELETE")

	s.router.Use(mux.MiddlewareFunc(httputil.RequestIDMiddleware()))
	s.router.Use(mux.MiddlewareFunc(httputil.LoggingMiddleware(s.logger)))
	s.router.Use(mux.MiddlewareFunc(httputil.RecoveryMiddleware(s.logger)))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
