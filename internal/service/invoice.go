package service

import (
	"context"
	"strings"
	"time"

	"github.com/factusapp/factusapp/internal/api/dto"
	"github.com/factusapp/factusapp/internal/domain/customer"
	"github.com/factusapp/factusapp/internal/domain/invoice"
	"github.com/factusapp/factusapp/internal/domain/tax"
	"github.com/factusapp/factusapp/internal/domain/user"
	ierr "github.com/factusapp/factusapp/internal/errors"
	"github.com/factusapp/factusapp/internal/integration/factus"
	"github.com/factusapp/factusapp/internal/sentry"
	"github.com/factusapp/factusapp/internal/types"
	"github.com/samber/lo"
)

// InvoiceService manages invoices from creation to their fiscal lifecycle.
// Every operation is scoped to the owner passed in and fails with
// ErrPermissionDenied when the invoice belongs to someone else.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, ownerID string, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id, ownerID string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error)
	ListInvoicesByStatus(ctx context.Context, ownerID string, status types.InvoiceStatus) (*dto.ListInvoicesResponse, error)
	DeleteInvoice(ctx context.Context, id, ownerID string) error

	// EmitInvoice sends a DRAFT invoice to the fiscal provider
	EmitInvoice(ctx context.Context, id, ownerID string) (*dto.InvoiceResponse, error)
	// SyncInvoice refreshes the fiscal status. A rejected invoice goes back to DRAFT.
	SyncInvoice(ctx context.Context, id, ownerID string) (*dto.InvoiceResponse, error)
	// CancelInvoice voids an emitted invoice at the fiscal provider and keeps the record
	CancelInvoice(ctx context.Context, id, ownerID string, req dto.CancelInvoiceRequest) (*dto.InvoiceResponse, error)
	DownloadXML(ctx context.Context, id, ownerID string) (*dto.FiscalDocumentResponse, error)
	DownloadPDF(ctx context.Context, id, ownerID string) (*dto.FiscalDocumentResponse, error)

	MarkPaid(ctx context.Context, id, ownerID string) (*dto.InvoiceResponse, error)
	MarkOverdue(ctx context.Context, id, ownerID string) (*dto.InvoiceResponse, error)
}

type invoiceService struct {
	ServiceParams
	locks *keyedMutex
	now   func() time.Time
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	if params.Calculator == nil {
		params.Calculator = tax.NewCalculator()
	}
	if params.PlanLimiter == nil {
		params.PlanLimiter = NewPlanLimiter(params.Config)
	}
	return &invoiceService{
		ServiceParams: params,
		locks:         newKeyedMutex(),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, ownerID string, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		created *invoice.Invoice
		owner   *user.User
	)
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		owner, err = s.UserRepo.Get(ctx, ownerID)
		if err != nil {
			return err
		}
		if err := s.PlanLimiter.CheckCreate(owner); err != nil {
			return err
		}

		if req.CustomerID != nil {
			if _, err := s.getOwnedCustomer(ctx, *req.CustomerID, ownerID); err != nil {
				return err
			}
		}

		inv := &invoice.Invoice{
			ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
			OwnerID:       ownerID,
			CustomerID:    req.CustomerID,
			InvoiceNumber: types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_INVOICE),
			Status:        types.InvoiceStatusDraft,
			PaymentMethod: req.PaymentMethod,
			Notes:         strings.TrimSpace(req.Notes),
			IssueDate:     s.now(),
			DueDate:       req.DueDate,
			Version:       1,
			BaseModel:     types.GetDefaultBaseModel(),
		}

		items, err := s.buildItems(ctx, inv.ID, ownerID, req.Items)
		if err != nil {
			return err
		}
		inv.Items = items
		inv.ApplyTotals(s.Calculator.Sum(inv.ItemAmounts()...))

		if err := s.InvoiceRepo.Create(ctx, inv); err != nil {
			return err
		}
		if err := s.UserRepo.IncrementMonthlyInvoiceCount(ctx, ownerID); err != nil {
			return err
		}

		created = inv
		return nil
	})
	s.Metrics.IncInvoiceCreated(err)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("invoice created",
		"invoice_id", created.ID,
		"invoice_number", created.InvoiceNumber,
		"owner_id", ownerID,
		"total", created.Total.String(),
		"items", len(created.Items),
	)

	if req.EmitImmediately && s.PlanLimiter.CanEmitFiscal(owner) {
		emitted, emitErr := s.EmitInvoice(ctx, created.ID, ownerID)
		if emitErr == nil {
			return emitted, nil
		}
		// the draft stays valid, the caller can emit again later
		s.Logger.Errorw("emission after create failed, invoice kept as draft",
			"invoice_id", created.ID,
			"error", emitErr,
		)
		s.Sentry.CaptureInvoiceException(ctx, emitErr, created.ID, "emit_on_create")
	}

	return dto.NewInvoiceResponse(created), nil
}

// buildItems resolves catalog products, takes their stock and prices every line
func (s *invoiceService) buildItems(ctx context.Context, invoiceID, ownerID string, reqs []dto.CreateInvoiceItemRequest) ([]*invoice.InvoiceItem, error) {
	items := make([]*invoice.InvoiceItem, 0, len(reqs))
	for i, r := range reqs {
		item := &invoice.InvoiceItem{
			ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_ITEM),
			InvoiceID:   invoiceID,
			ProductCode: r.ProductCode,
			ProductName: strings.TrimSpace(r.ProductName),
			Quantity:    r.Quantity,
			TaxRate:     lo.FromPtrOr(r.TaxRate, tax.DefaultRate),
			TaxIncluded: lo.FromPtrOr(r.TaxIncluded, false),
			Position:    i,
		}
		if r.UnitPrice != nil {
			item.UnitPrice = *r.UnitPrice
		}

		if r.IsInventoryItem() {
			p, err := s.ProductRepo.Get(ctx, *r.ProductID)
			if err != nil {
				return nil, err
			}
			if !p.BelongsTo(ownerID) {
				return nil, ierr.NewError("product belongs to another user").
					WithHint("You can only invoice products from your own catalog").
					WithReportableDetails(map[string]any{"product_id": p.ID}).
					Mark(ierr.ErrPermissionDenied)
			}
			if err := s.ProductRepo.DecrementStock(ctx, p.ID, r.Quantity); err != nil {
				return nil, err
			}
			item.ProductID = lo.ToPtr(p.ID)
			item.ProductCode = p.Code
			item.ProductName = p.Name
			item.UnitPrice = p.Price
			item.TaxRate = p.TaxRate
			item.TaxIncluded = p.TaxIncluded
		}

		item.UnitPrice = item.UnitPrice.Round(tax.CurrencyPrecision)
		amounts, err := s.Calculator.CalculateLine(tax.LineInput{
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TaxRate:     item.TaxRate,
			TaxIncluded: item.TaxIncluded,
		})
		if err != nil {
			return nil, ierr.WithError(err).
				WithReportableDetails(map[string]any{"item_index": i}).
				Mark(ierr.ErrValidation)
		}
		item.Subtotal = amounts.Subtotal
		item.TaxAmount = amounts.TaxAmount
		item.Total = amounts.Total

		items = append(items, item)
	}
	return items, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id, ownerID string) (*dto.InvoiceResponse, error) {
	inv, err := s.getOwnedInvoice(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error) {
	if filter == nil {
		filter = types.NewInvoiceFilter()
	}
	if filter.OwnerID == "" {
		return nil, ierr.NewError("owner is required").
			WithHint("Invoices can only be listed for a user").
			Mark(ierr.ErrValidation)
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	invoices, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.InvoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewListInvoicesResponse(invoices, total, filter), nil
}

func (s *invoiceService) ListInvoicesByStatus(ctx context.Context, ownerID string, status types.InvoiceStatus) (*dto.ListInvoicesResponse, error) {
	if err := status.Validate(); err != nil {
		return nil, err
	}
	filter := types.NewInvoiceFilter()
	filter.OwnerID = ownerID
	filter.Status = []types.InvoiceStatus{status}
	return s.ListInvoices(ctx, filter)
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, id, ownerID string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	inv, err := s.getOwnedInvoice(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if !inv.IsDraft() {
		return invalidState(inv, "Only draft invoices can be deleted")
	}
	if err := s.InvoiceRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.Logger.Infow("invoice deleted", "invoice_id", id, "owner_id", ownerID)
	return nil
}

func (s *invoiceService) EmitInvoice(ctx context.Context, id, ownerID string) (*dto.InvoiceResponse, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	inv, err := s.getOwnedInvoice(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if !inv.IsDraft() {
		return nil, invalidState(inv, "Only draft invoices can be emitted")
	}

	owner, err := s.UserRepo.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.PlanLimiter.CheckEmitFiscal(owner); err != nil {
		return nil, err
	}
	if inv.CustomerID == nil {
		return nil, ierr.NewError("invoice has no customer").
			WithHint("Assign a customer to the invoice before emitting it").
			WithReportableDetails(map[string]any{"invoice_id": inv.ID}).
			Mark(ierr.ErrValidation)
	}
	cust, err := s.getOwnedCustomer(ctx, *inv.CustomerID, ownerID)
	if err != nil {
		return nil, err
	}

	req, err := s.FiscalMapper.BuildBillRequest(inv, cust, owner)
	if err != nil {
		return nil, err
	}

	span, spanCtx := s.Sentry.StartFiscalSpan(ctx, factus.OpSubmit, map[string]interface{}{
		"invoice_id":     inv.ID,
		"reference_code": req.ReferenceCode,
	})
	env, err := s.FiscalClient.Submit(spanCtx, req)
	sentry.FinishSpan(span)
	if err == nil {
		err = env.RequireBill()
	}
	if err != nil {
		s.Logger.Errorw("fiscal emission failed", "invoice_id", inv.ID, "error", err)
		return nil, err
	}

	from := inv.Status
	inv.ApplyEmission(factus.ToFiscalDocument(env))
	if err := s.saveTransition(ctx, inv, from); err != nil {
		return nil, err
	}

	s.Logger.Infow("invoice emitted",
		"invoice_id", inv.ID,
		"external_id", lo.FromPtr(inv.ExternalID),
		"external_number", lo.FromPtr(inv.ExternalNumber),
	)
	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) SyncInvoice(ctx context.Context, id, ownerID string) (*dto.InvoiceResponse, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	inv, err := s.getOwnedInvoice(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if !inv.HasExternalID() {
		return nil, invalidState(inv, "The invoice has not been sent to the fiscal provider")
	}

	span, spanCtx := s.Sentry.StartFiscalSpan(ctx, factus.OpStatus, map[string]interface{}{"invoice_id": inv.ID})
	env, err := s.FiscalClient.Status(spanCtx, *inv.ExternalID)
	sentry.FinishSpan(span)
	if err != nil {
		return nil, err
	}

	from := inv.Status
	if inv.ApplyExternalStatus(env.StatusText()) {
		s.Logger.Warnw("invoice rejected by the fiscal authority, back to draft",
			"invoice_id", inv.ID,
			"external_status", env.StatusText(),
			"message", env.Message,
		)
	}
	if err := s.saveTransition(ctx, inv, from); err != nil {
		return nil, err
	}
	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) CancelInvoice(ctx context.Context, id, ownerID string, req dto.CancelInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	inv, err := s.getOwnedInvoice(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if !inv.Status.IsEmitted() || !inv.HasExternalID() {
		return nil, invalidState(inv, "Only invoices emitted to the fiscal provider can be cancelled")
	}

	motive := strings.TrimSpace(req.Motive)
	if motive == "" {
		motive = s.Config.Factus.GetCancelMotive()
	}

	span, spanCtx := s.Sentry.StartFiscalSpan(ctx, factus.OpCancel, map[string]interface{}{"invoice_id": inv.ID})
	env, err := s.FiscalClient.Cancel(spanCtx, *inv.ExternalID, motive)
	sentry.FinishSpan(span)
	if err != nil {
		return nil, err
	}

	status := env.StatusText()
	inv.ExternalStatus = lo.EmptyableToPtr(status)
	inv.AuthorityStatus = lo.EmptyableToPtr(status)
	if err := s.saveTransition(ctx, inv, inv.Status); err != nil {
		return nil, err
	}

	s.Logger.Infow("invoice cancelled at fiscal provider", "invoice_id", inv.ID, "motive", motive)
	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) DownloadXML(ctx context.Context, id, ownerID string) (*dto.FiscalDocumentResponse, error) {
	return s.download(ctx, id, ownerID, factus.OpDownloadXML, s.FiscalClient.DownloadXML)
}

func (s *invoiceService) DownloadPDF(ctx context.Context, id, ownerID string) (*dto.FiscalDocumentResponse, error) {
	return s.download(ctx, id, ownerID, factus.OpDownloadPDF, s.FiscalClient.DownloadPDF)
}

func (s *invoiceService) download(
	ctx context.Context,
	id, ownerID, op string,
	fetch func(ctx context.Context, number string) (*factus.Document, error),
) (*dto.FiscalDocumentResponse, error) {
	inv, err := s.getOwnedInvoice(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if !inv.HasExternalNumber() {
		return nil, invalidState(inv, "The invoice has no fiscal number yet, emit it first")
	}

	span, spanCtx := s.Sentry.StartFiscalSpan(ctx, op, map[string]interface{}{"invoice_id": inv.ID})
	doc, err := fetch(spanCtx, *inv.ExternalNumber)
	sentry.FinishSpan(span)
	if err != nil {
		return nil, err
	}
	return dto.NewFiscalDocumentResponse(inv.ID, doc), nil
}

func (s *invoiceService) MarkPaid(ctx context.Context, id, ownerID string) (*dto.InvoiceResponse, error) {
	return s.settle(ctx, id, ownerID, types.InvoiceStatusPaid)
}

func (s *invoiceService) MarkOverdue(ctx context.Context, id, ownerID string) (*dto.InvoiceResponse, error) {
	return s.settle(ctx, id, ownerID, types.InvoiceStatusOverdue)
}

func (s *invoiceService) settle(ctx context.Context, id, ownerID string, to types.InvoiceStatus) (*dto.InvoiceResponse, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	inv, err := s.getOwnedInvoice(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if inv.Status != types.InvoiceStatusEmitted || !inv.Status.CanTransitionTo(to) {
		return nil, invalidState(inv, "Only emitted invoices can be marked as "+strings.ToLower(string(to)))
	}

	from := inv.Status
	inv.Status = to
	if err := s.saveTransition(ctx, inv, from); err != nil {
		return nil, err
	}
	return dto.NewInvoiceResponse(inv), nil
}

// saveTransition persists inv and records the status change, if any. A lost
// version race means another request changed the invoice first.
func (s *invoiceService) saveTransition(ctx context.Context, inv *invoice.Invoice, from types.InvoiceStatus) error {
	if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
		if ierr.IsVersionConflict(err) {
			return ierr.WithError(err).
				WithHint("The invoice was changed by another request, reload it and try again").
				Mark(ierr.ErrInvalidState)
		}
		return err
	}
	if from != inv.Status {
		s.Metrics.IncTransition(string(from), string(inv.Status))
		s.Logger.Infow("invoice status changed",
			"invoice_id", inv.ID,
			"from", from,
			"to", inv.Status,
		)
		s.Sentry.AddBreadcrumb("invoice", "status changed", map[string]interface{}{
			"invoice_id": inv.ID,
			"from":       string(from),
			"to":         string(inv.Status),
		})
	}
	return nil
}

func (s *invoiceService) getOwnedInvoice(ctx context.Context, id, ownerID string) (*invoice.Invoice, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inv.BelongsTo(ownerID) {
		return nil, ierr.NewError("invoice belongs to another user").
			WithHint("You do not have access to this invoice").
			WithReportableDetails(map[string]any{"invoice_id": id}).
			Mark(ierr.ErrPermissionDenied)
	}
	return inv, nil
}

func (s *invoiceService) getOwnedCustomer(ctx context.Context, id, ownerID string) (*customer.Customer, error) {
	cust, err := s.CustomerRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cust.BelongsTo(ownerID) {
		return nil, ierr.NewError("customer belongs to another user").
			WithHint("You can only invoice your own customers").
			WithReportableDetails(map[string]any{"customer_id": id}).
			Mark(ierr.ErrPermissionDenied)
	}
	return cust, nil
}

func invalidState(inv *invoice.Invoice, hint string) error {
	return ierr.NewError("operation not allowed in current invoice status").
		WithHint(hint).
		WithReportableDetails(map[string]any{
			"invoice_id": inv.ID,
			"status":     inv.Status,
		}).
		Mark(ierr.ErrInvalidState)
}
