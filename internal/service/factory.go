package service

import (
	"github.com/factusapp/factusapp/internal/config"
	"github.com/factusapp/factusapp/internal/domain/customer"
	"github.com/factusapp/factusapp/internal/domain/invoice"
	"github.com/factusapp/factusapp/internal/domain/product"
	"github.com/factusapp/factusapp/internal/domain/tax"
	"github.com/factusapp/factusapp/internal/domain/user"
	"github.com/factusapp/factusapp/internal/integration/factus"
	"github.com/factusapp/factusapp/internal/logger"
	"github.com/factusapp/factusapp/internal/metrics"
	"github.com/factusapp/factusapp/internal/postgres"
	"github.com/factusapp/factusapp/internal/sentry"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger  *logger.Logger
	Config  *config.Configuration
	DB      postgres.IClient
	Metrics *metrics.Metrics
	Sentry  *sentry.Service

	// Repositories
	InvoiceRepo  invoice.Repository
	UserRepo     user.Repository
	CustomerRepo customer.Repository
	ProductRepo  product.Repository

	// Fiscal provider
	FiscalClient factus.Client
	FiscalMapper *factus.Mapper

	Calculator  tax.Calculator
	PlanLimiter PlanLimiter
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	metrics *metrics.Metrics,
	sentry *sentry.Service,
	invoiceRepo invoice.Repository,
	userRepo user.Repository,
	customerRepo customer.Repository,
	productRepo product.Repository,
	fiscalClient factus.Client,
	fiscalMapper *factus.Mapper,
	calculator tax.Calculator,
	planLimiter PlanLimiter,
) ServiceParams {
	return ServiceParams{
		Logger:       logger,
		Config:       config,
		DB:           db,
		Metrics:      metrics,
		Sentry:       sentry,
		InvoiceRepo:  invoiceRepo,
		UserRepo:     userRepo,
		CustomerRepo: customerRepo,
		ProductRepo:  productRepo,
		FiscalClient: fiscalClient,
		FiscalMapper: fiscalMapper,
		Calculator:   calculator,
		PlanLimiter:  planLimiter,
	}
}
