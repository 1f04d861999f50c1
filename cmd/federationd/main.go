// Package main is the entry point for the FederationServer daemon.
package main

import (
	"context"

	"github.com/federationserver/federationserver/internal/attachment"
	"github.com/federationserver/federationserver/internal/audit"
	"github.com/federationserver/federationserver/internal/blacklist"
	"github.com/federationserver/federationserver/internal/cache"
	"github.com/federationserver/federationserver/internal/config"
	"github.com/federationserver/federationserver/internal/dispatcher"
	"github.com/federationserver/federationserver/internal/entity"
	"github.com/federationserver/federationserver/internal/evidence"
	"github.com/federationserver/federationserver/internal/handler"
	"github.com/federationserver/federationserver/internal/logging"
	"github.com/federationserver/federationserver/internal/operator"
	"github.com/federationserver/federationserver/internal/server"
	"github.com/federationserver/federationserver/internal/storage"
	"github.com/federationserver/federationserver/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logger.Info().Str("port", cfg.Server.Port).Msg("starting FederationServer")

	db, err := store.Open(cfg.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to PostgreSQL")
	}
	defer db.Close()

	if err := db.Bootstrap(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("failed to bootstrap schema")
	}

	var c cache.Cache
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedis(cfg.Cache, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer redisCache.Close()
		c = redisCache
	} else {
		c = cache.Noop{}
		logger.Info().Msg("cache disabled, using no-op cache")
	}

	files, err := storage.New(cfg.Server.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize attachment storage")
	}

	operators := operator.NewService(operator.NewRepository(db.DB), c, cfg.Cache, logger)
	entities := entity.NewService(entity.NewRepository(db.DB), c, cfg.Cache, logger)
	evidenceSvc := evidence.NewService(evidence.NewRepository(db.DB), entities, operators, c, cfg.Cache, logger)
	blacklistSvc := blacklist.NewService(blacklist.NewRepository(db.DB), entities, evidenceSvc, cfg.Server.MinBlacklistTime, logger)
	attachments := attachment.NewService(attachment.NewRepository(db.DB), files, evidenceSvc, cfg.Server.MaxUploadSize, cfg.Server.MaxItemsPerKind, logger)
	auditSvc := audit.NewService(audit.NewRepository(db.DB), logger)

	// Force the master operator to materialize before the server accepts
	// traffic, so the first real request never pays the synthesis cost.
	if _, err := operators.GetMasterOperator(context.Background(), cfg.Server.APIKey); err != nil {
		logger.Fatal().Err(err).Msg("failed to synthesize master operator")
	}

	h := handler.New(cfg, logger, operators, entities, evidenceSvc, attachments, blacklistSvc, auditSvc)

	deps := dispatcher.Dependencies{
		Config: dispatcher.Config{
			MasterAPIKey: cfg.Server.APIKey,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		Logger:    logger,
		Operators: operators,

		GetInfo: h.GetInfo,

		CreateOperator:     h.CreateOperator,
		ListOperators:      h.ListOperators,
		GetSelf:            h.GetSelf,
		GetOperator:        h.GetOperator,
		DeleteOperator:     h.DeleteOperator,
		EnableOperator:     h.EnableOperator,
		DisableOperator:    h.DisableOperator,
		SetManageOperators: h.SetManageOperators,
		SetManageBlacklist: h.SetManageBlacklist,
		SetManageClient:    h.SetManageClient,
		RefreshOperatorKey: h.RefreshOperatorKey,
		OperatorAudit:      h.OperatorAudit,
		OperatorEvidence:   h.OperatorEvidence,
		OperatorBlacklist:  h.OperatorBlacklist,

		CreateEntity:    h.CreateEntity,
		ListEntities:    h.ListEntities,
		GetEntity:       h.GetEntity,
		DeleteEntity:    h.DeleteEntity,
		EntityQuery:     h.EntityQuery,
		EntityAudit:     h.EntityAudit,
		EntityBlacklist: h.EntityBlacklist,
		EntityEvidence:  h.EntityEvidence,

		CreateBlacklist:         h.CreateBlacklist,
		ListBlacklist:           h.ListBlacklist,
		GetBlacklist:            h.GetBlacklist,
		DeleteBlacklist:         h.DeleteBlacklist,
		LiftBlacklist:           h.LiftBlacklist,
		AttachBlacklistEvidence: h.AttachBlacklistEvidence,

		CreateEvidence:        h.CreateEvidence,
		ListEvidence:          h.ListEvidence,
		GetEvidence:           h.GetEvidence,
		DeleteEvidence:        h.DeleteEvidence,
		UpdateConfidentiality: h.UpdateConfidentiality,

		UploadAttachment:  h.UploadAttachment,
		GetAttachment:     h.GetAttachment,
		GetAttachmentInfo: h.GetAttachmentInfo,
		DeleteAttachment:  h.DeleteAttachment,

		ListAudit:     h.ListAudit,
		GetAuditEntry: h.GetAuditEntry,
	}

	mux := dispatcher.New(deps)
	srv := server.New(cfg, mux, logger)

	logger.Info().Str("addr", srv.Addr()).Msg("FederationServer ready to accept connections")
	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
	logger.Info().Msg("FederationServer shutdown complete")
}
