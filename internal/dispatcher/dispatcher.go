package dispatcher

import (
	"embed"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/federationserver/federationserver/internal/apierr"
	"github.com/federationserver/federationserver/internal/middleware"
	"github.com/federationserver/federationserver/internal/response"
)

//go:embed assets/favicon.ico
var assets embed.FS

// Dependencies holds every handler function and the operator lookup the
// dispatcher needs to build the full route table. Each field corresponds
// to one row of the route table in spec.md §4.11; cmd/federationd wires
// concrete internal/handler methods into these fields, which keeps this
// package free of a dependency on internal/handler (handlers depend on
// dispatcher for ReadParams/auth helpers, not the reverse).
type Dependencies struct {
	Config         Config
	Logger         zerolog.Logger
	Operators      OperatorGetter

	GetInfo http.HandlerFunc

	CreateOperator         http.HandlerFunc
	ListOperators          http.HandlerFunc
	GetSelf                http.HandlerFunc
	GetOperator            http.HandlerFunc
	DeleteOperator         http.HandlerFunc
	EnableOperator         http.HandlerFunc
	DisableOperator        http.HandlerFunc
	SetManageOperators     http.HandlerFunc
	SetManageBlacklist     http.HandlerFunc
	SetManageClient        http.HandlerFunc
	RefreshOperatorKey     http.HandlerFunc
	OperatorAudit          http.HandlerFunc
	OperatorEvidence       http.HandlerFunc
	OperatorBlacklist      http.HandlerFunc

	CreateEntity   http.HandlerFunc
	ListEntities   http.HandlerFunc
	GetEntity      http.HandlerFunc
	DeleteEntity   http.HandlerFunc
	EntityQuery    http.HandlerFunc
	EntityAudit    http.HandlerFunc
	EntityBlacklist http.HandlerFunc
	EntityEvidence http.HandlerFunc

	CreateBlacklist       http.HandlerFunc
	ListBlacklist         http.HandlerFunc
	GetBlacklist          http.HandlerFunc
	DeleteBlacklist       http.HandlerFunc
	LiftBlacklist         http.HandlerFunc
	AttachBlacklistEvidence http.HandlerFunc

	CreateEvidence       http.HandlerFunc
	ListEvidence         http.HandlerFunc
	GetEvidence          http.HandlerFunc
	DeleteEvidence       http.HandlerFunc
	UpdateConfidentiality http.HandlerFunc

	UploadAttachment    http.HandlerFunc
	GetAttachment       http.HandlerFunc
	GetAttachmentInfo   http.HandlerFunc
	DeleteAttachment    http.HandlerFunc

	ListAudit     http.HandlerFunc
	GetAuditEntry http.HandlerFunc
}

// Config is the subset of server configuration the dispatcher itself
// needs (CORS policy, master API key, request timeout).
type Config struct {
	MasterAPIKey string
	WriteTimeout time.Duration
}

const (
	uuidPattern       = `[0-9a-fA-F-]{36}`
	hashOrUUIDPattern = `[0-9a-fA-F-]{36}|[0-9a-f]{64}`
)

// New builds the full http.Handler, generalizing the teacher's
// internal/router.New: chi for dispatch, go-chi/cors for the permissive
// CORS policy spec.md §6 requires, and the same middleware order
// (request ID, real IP, recoverer, logger, then per-route auth).
func New(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	if deps.Config.WriteTimeout > 0 {
		r.Use(chimiddleware.Timeout(deps.Config.WriteTimeout))
	}
	r.Use(AuthMiddleware(deps.Operators, deps.Config.MasterAPIKey))

	r.Get("/favicon.ico", faviconHandler)
	r.Get("/info", deps.GetInfo)

	r.Route("/operators", func(r chi.Router) {
		r.Post("/", deps.CreateOperator)
		r.Get("/", deps.ListOperators)
		r.Get("/self", deps.GetSelf)
		r.Post("/refresh", deps.RefreshOperatorKey)
		r.Route("/{uuid:"+uuidPattern+"}", func(r chi.Router) {
			r.Get("/", deps.GetOperator)
			r.Post("/delete", deps.DeleteOperator)
			r.Post("/enable", deps.EnableOperator)
			r.Post("/disable", deps.DisableOperator)
			r.Post("/manage_operators", deps.SetManageOperators)
			r.Post("/manage_blacklist", deps.SetManageBlacklist)
			r.Post("/manage_client", deps.SetManageClient)
			r.Post("/refresh", deps.RefreshOperatorKey)
			r.Get("/audit", deps.OperatorAudit)
			r.Get("/evidence", deps.OperatorEvidence)
			r.Get("/blacklist", deps.OperatorBlacklist)
		})
	})

	r.Route("/entities", func(r chi.Router) {
		r.Post("/", deps.CreateEntity)
		r.Get("/", deps.ListEntities)
		r.Route("/{id:"+hashOrUUIDPattern+"}", func(r chi.Router) {
			r.Get("/", deps.GetEntity)
			r.Delete("/", deps.DeleteEntity)
			r.Get("/query", deps.EntityQuery)
			r.Get("/audit", deps.EntityAudit)
			r.Get("/blacklist", deps.EntityBlacklist)
			r.Get("/evidence", deps.EntityEvidence)
		})
	})

	r.Route("/blacklist", func(r chi.Router) {
		r.Post("/", deps.CreateBlacklist)
		r.Get("/", deps.ListBlacklist)
		r.Route("/{uuid:"+uuidPattern+"}", func(r chi.Router) {
			r.Get("/", deps.GetBlacklist)
			r.Delete("/", deps.DeleteBlacklist)
			r.Post("/lift", deps.LiftBlacklist)
			r.Post("/attach_evidence", deps.AttachBlacklistEvidence)
		})
	})

	r.Route("/evidence", func(r chi.Router) {
		r.Post("/", deps.CreateEvidence)
		r.Get("/", deps.ListEvidence)
		r.Route("/{uuid:"+uuidPattern+"}", func(r chi.Router) {
			r.Get("/", deps.GetEvidence)
			r.Delete("/", deps.DeleteEvidence)
			r.Post("/update_confidentiality", deps.UpdateConfidentiality)
		})
	})

	r.Route("/attachments", func(r chi.Router) {
		r.Post("/", deps.UploadAttachment)
		r.Route("/{uuid:"+uuidPattern+"}", func(r chi.Router) {
			r.Get("/", deps.GetAttachment)
			r.Get("/info", deps.GetAttachmentInfo)
			r.Delete("/", deps.DeleteAttachment)
		})
	})

	r.Route("/audit", func(r chi.Router) {
		r.Get("/", deps.ListAudit)
		r.Get("/{uuid:"+uuidPattern+"}", deps.GetAuditEntry)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.WriteError(w, apierr.New(apierr.NotFound, "the requested resource was not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.WriteError(w, apierr.New(apierr.MethodOrPathNotAllowed, "the requested method is not allowed for this path"))
	})

	return r
}

func faviconHandler(w http.ResponseWriter, r *http.Request) {
	data, err := assets.ReadFile("assets/favicon.ico")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/x-icon")
	_, _ = w.Write(data)
}
