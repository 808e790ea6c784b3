package api

import (
	v1 "github.com/factusapp/factusapp/internal/api/v1"
	"github.com/factusapp/factusapp/internal/config"
	"github.com/factusapp/factusapp/internal/logger"
	"github.com/factusapp/factusapp/internal/rest/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Health  *v1.HealthHandler
	Invoice *v1.InvoiceHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.CORSMiddleware,
		middleware.RequestIDMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.ErrorHandler(logger),
	)

	router.GET("/health", handlers.Health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1Private := router.Group("/v1")
	v1Private.Use(middleware.UserIDMiddleware, middleware.SentryScopeMiddleware)

	invoices := v1Private.Group("/invoices")
	{
		invoices.POST("", handlers.Invoice.CreateInvoice)
		invoices.GET("", handlers.Invoice.ListInvoices)
		invoices.GET("/:id", handlers.Invoice.GetInvoice)
		invoices.DELETE("/:id", handlers.Invoice.DeleteInvoice)

		invoices.POST("/:id/emit", handlers.Invoice.EmitInvoice)
		invoices.POST("/:id/sync", handlers.Invoice.SyncInvoice)
		invoices.POST("/:id/cancel", handlers.Invoice.CancelInvoice)
		invoices.POST("/:id/pay", handlers.Invoice.MarkPaid)
		invoices.POST("/:id/overdue", handlers.Invoice.MarkOverdue)

		invoices.GET("/:id/xml", handlers.Invoice.DownloadXML)
		invoices.GET("/:id/pdf", handlers.Invoice.DownloadPDF)
	}

	return router
}
