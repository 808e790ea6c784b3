package v1

import (
	"context"
	"net/http"

	"github.com/factusapp/factusapp/internal/api/dto"
	ierr "github.com/factusapp/factusapp/internal/errors"
	"github.com/factusapp/factusapp/internal/logger"
	"github.com/factusapp/factusapp/internal/service"
	"github.com/factusapp/factusapp/internal/types"
	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
	logger         *logger.Logger
}

func NewInvoiceHandler(invoiceService service.InvoiceService, logger *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		logger:         logger,
	}
}

// CreateInvoice godoc
// @Summary Create a new invoice
// @Description Create a draft invoice and optionally emit it right away
// @Tags Invoices
// @Accept json
// @Produce json
// @Param invoice body dto.CreateInvoiceRequest true "Invoice details"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 402 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debugw("failed to bind invoice request", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	ctx := c.Request.Context()
	resp, err := h.invoiceService.CreateInvoice(ctx, types.GetUserID(ctx), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetInvoice godoc
// @Summary Get an invoice by ID
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	ctx := c.Request.Context()
	resp, err := h.invoiceService.GetInvoice(ctx, c.Param("id"), types.GetUserID(ctx))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListInvoices godoc
// @Summary List invoices
// @Description List the caller's invoices, newest first. status accepts a comma separated list.
// @Tags Invoices
// @Produce json
// @Param filter query dto.ListInvoicesRequest false "Filter"
// @Success 200 {object} dto.ListInvoicesResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	var req dto.ListInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid query parameters").
			Mark(ierr.ErrValidation))
		return
	}

	ctx := c.Request.Context()
	filter, err := req.ToFilter(types.GetUserID(ctx))
	if err != nil {
		c.Error(err)
		return
	}

	resp, err := h.invoiceService.ListInvoices(ctx, filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteInvoice godoc
// @Summary Delete a draft invoice
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.SuccessResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.invoiceService.DeleteInvoice(ctx, c.Param("id"), types.GetUserID(ctx)); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "invoice deleted successfully"})
}

// EmitInvoice godoc
// @Summary Emit an invoice to the fiscal provider
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /invoices/{id}/emit [post]
func (h *InvoiceHandler) EmitInvoice(c *gin.Context) {
	h.transition(c, h.invoiceService.EmitInvoice)
}

// SyncInvoice godoc
// @Summary Refresh the fiscal status of an invoice
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /invoices/{id}/sync [post]
func (h *InvoiceHandler) SyncInvoice(c *gin.Context) {
	h.transition(c, h.invoiceService.SyncInvoice)
}

// CancelInvoice godoc
// @Summary Cancel an emitted invoice at the fiscal provider
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param request body dto.CancelInvoiceRequest false "Cancellation motive"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /invoices/{id}/cancel [post]
func (h *InvoiceHandler) CancelInvoice(c *gin.Context) {
	var req dto.CancelInvoiceRequest
	// the body is optional
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(ierr.WithError(err).
				WithHint("Invalid request format").
				Mark(ierr.ErrValidation))
			return
		}
	}

	ctx := c.Request.Context()
	resp, err := h.invoiceService.CancelInvoice(ctx, c.Param("id"), types.GetUserID(ctx), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// MarkPaid godoc
// @Summary Mark an emitted invoice as paid
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /invoices/{id}/pay [post]
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	h.transition(c, h.invoiceService.MarkPaid)
}

// MarkOverdue godoc
// @Summary Mark an emitted invoice as overdue
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /invoices/{id}/overdue [post]
func (h *InvoiceHandler) MarkOverdue(c *gin.Context) {
	h.transition(c, h.invoiceService.MarkOverdue)
}

// DownloadXML godoc
// @Summary Download the signed XML of an emitted invoice
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.FiscalDocumentResponse
// @Router /invoices/{id}/xml [get]
func (h *InvoiceHandler) DownloadXML(c *gin.Context) {
	h.download(c, h.invoiceService.DownloadXML)
}

// DownloadPDF godoc
// @Summary Download the PDF of an emitted invoice
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.FiscalDocumentResponse
// @Router /invoices/{id}/pdf [get]
func (h *InvoiceHandler) DownloadPDF(c *gin.Context) {
	h.download(c, h.invoiceService.DownloadPDF)
}

type invoiceAction func(ctx context.Context, id, ownerID string) (*dto.InvoiceResponse, error)

func (h *InvoiceHandler) transition(c *gin.Context, action invoiceAction) {
	ctx := c.Request.Context()
	resp, err := action(ctx, c.Param("id"), types.GetUserID(ctx))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

type documentAction func(ctx context.Context, id, ownerID string) (*dto.FiscalDocumentResponse, error)

func (h *InvoiceHandler) download(c *gin.Context, action documentAction) {
	ctx := c.Request.Context()
	resp, err := action(ctx, c.Param("id"), types.GetUserID(ctx))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
