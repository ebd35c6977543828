// Package leads provides the lead distribution bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"medleads_backend/internal/events"
	apphttp "medleads_backend/internal/http"
	"medleads_backend/internal/leads/distribution"
	"medleads_backend/internal/leads/handler"
	"medleads_backend/internal/leads/queue"
	"medleads_backend/internal/leads/recycling"
	"medleads_backend/internal/leads/repository"
	"medleads_backend/internal/leads/scoring"
	"medleads_backend/internal/leads/service"
	"medleads_backend/platform/config"
	"medleads_backend/platform/logger"
	"medleads_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler     *handler.Handler
	service     *service.Service
	distributor *distribution.Service
	monitor     *recycling.Monitor
}

// ModuleConfig combines the config interfaces the module needs.
type ModuleConfig interface {
	config.DistributionConfig
	config.SweepConfig
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, rural scoring.RuralClassifier, eventBus events.Bus,
	val *validator.Validator, cfg ModuleConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)

	scorer := scoring.New(rural, log)
	q := queue.New(repo, cfg.GetMaxRecyclingAttempts(), log)
	distributor := distribution.New(repo, q, eventBus, log)
	monitor := recycling.NewMonitor(repo, distributor, eventBus, log,
		cfg.GetSweepInterval(), cfg.GetInactivityThreshold(), cfg.GetMaxRecyclingAttempts())

	svc := service.New(repo, scorer, q, distributor, monitor, eventBus, log,
		cfg.GetDefaultTargetQuota())

	return &Module{
		handler:     handler.New(svc, val),
		service:     svc,
		distributor: distributor,
		monitor:     monitor,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the leads application service for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// DistributionService returns the quota maintenance service, used by the
// background worker.
func (m *Module) DistributionService() *distribution.Service {
	return m.distributor
}

// Monitor returns the recycling monitor, used by the background worker.
func (m *Module) Monitor() *recycling.Monitor {
	return m.monitor
}

// RegisterRoutes mounts leads and agents routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterLeadRoutes(ctx.V1.Group("/leads"))
	m.handler.RegisterAgentRoutes(ctx.V1.Group("/agents"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
