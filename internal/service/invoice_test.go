package service

import (
	"sync"
	"testing"
	"time"

	"github.com/factusapp/factusapp/internal/api/dto"
	"github.com/factusapp/factusapp/internal/config"
	"github.com/factusapp/factusapp/internal/domain/customer"
	"github.com/factusapp/factusapp/internal/domain/product"
	ierr "github.com/factusapp/factusapp/internal/errors"
	"github.com/factusapp/factusapp/internal/integration/factus"
	"github.com/factusapp/factusapp/internal/testutil"
	"github.com/factusapp/factusapp/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/suite"
)

const otherUserID = "user_11111111111111111111111111"

type InvoiceServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  InvoiceService
	testData struct {
		customer *customer.Customer
		product  *product.Product
	}
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = s.newService(s.GetConfig())
	s.testData.customer = s.CreateCustomer(testutil.DefaultUserID)
	s.testData.product = s.CreateProduct(testutil.DefaultUserID, "50000", 10)
}

func (s *InvoiceServiceSuite) newService(cfg *config.Configuration) InvoiceService {
	stores := s.GetStores()
	return NewInvoiceService(ServiceParams{
		Logger:       s.GetLogger(),
		Config:       cfg,
		DB:           s.GetDB(),
		Metrics:      s.GetMetrics(),
		InvoiceRepo:  stores.InvoiceRepo,
		UserRepo:     stores.UserRepo,
		CustomerRepo: stores.CustomerRepo,
		ProductRepo:  stores.ProductRepo,
		FiscalClient: s.GetFiscalClient(),
		FiscalMapper: s.GetFiscalMapper(),
	})
}

func (s *InvoiceServiceSuite) freeTextRequest() dto.CreateInvoiceRequest {
	return dto.CreateInvoiceRequest{
		CustomerID:    lo.ToPtr(s.testData.customer.ID),
		PaymentMethod: types.PaymentMethodCash,
		Items: []dto.CreateInvoiceItemRequest{
			{
				ProductName: "Asesoría contable",
				Quantity:    2,
				UnitPrice:   lo.ToPtr(decimal.NewFromInt(100000)),
			},
		},
	}
}

func (s *InvoiceServiceSuite) createDraft() *dto.InvoiceResponse {
	resp, err := s.service.CreateInvoice(s.GetContext(), testutil.DefaultUserID, s.freeTextRequest())
	s.Require().NoError(err)
	return resp
}

func (s *InvoiceServiceSuite) createEmitted() *dto.InvoiceResponse {
	draft := s.createDraft()
	resp, err := s.service.EmitInvoice(s.GetContext(), draft.ID, testutil.DefaultUserID)
	s.Require().NoError(err)
	return resp
}

func (s *InvoiceServiceSuite) TestCreateInvoice_FreeTextItem() {
	s.CreateUser(types.SubscriptionPlanBasic, 0)

	resp := s.createDraft()

	s.Equal(types.InvoiceStatusDraft, resp.Status)
	s.Equal(1, resp.Version)
	s.Contains(resp.InvoiceNumber, "FV-")
	s.Require().Len(resp.Items, 1)
	s.True(decimal.NewFromInt(200000).Equal(resp.Subtotal), resp.Subtotal.String())
	s.True(decimal.NewFromInt(38000).Equal(resp.TaxAmount), resp.TaxAmount.String())
	s.True(decimal.NewFromInt(238000).Equal(resp.Total), resp.Total.String())
	s.True(tax19().Equal(resp.Items[0].TaxRate))
	s.False(resp.Items[0].TaxIncluded)

	u, err := s.GetStores().UserRepo.Get(s.GetContext(), testutil.DefaultUserID)
	s.NoError(err)
	s.Equal(1, u.MonthlyInvoiceCount)
}

func (s *InvoiceServiceSuite) TestCreateInvoice_ProductItemTakesStockAndPricing() {
	s.CreateUser(types.SubscriptionPlanBasic, 0)

	resp, err := s.service.CreateInvoice(s.GetContext(), testutil.DefaultUserID, dto.CreateInvoiceRequest{
		PaymentMethod: types.PaymentMethodTransfer,
		Items: []dto.CreateInvoiceItemRequest{
			{
				ProductID: lo.ToPtr(s.testData.product.ID),
				Quantity:  3,
				// ignored for catalog products
				UnitPrice: lo.ToPtr(decimal.NewFromInt(1)),
			},
		},
	})
	s.Require().NoError(err)

	item := resp.Items[0]
	s.Equal(s.testData.product.ID, lo.FromPtr(item.ProductID))
	s.Equal(s.testData.product.Name, item.ProductName)
	s.True(decimal.NewFromInt(50000).Equal(item.UnitPrice))
	s.True(decimal.NewFromInt(178500).Equal(resp.Total), resp.Total.String())
	s.Nil(resp.CustomerID)

	p, err := s.GetStores().ProductRepo.Get(s.GetContext(), s.testData.product.ID)
	s.NoError(err)
	s.Equal(7, p.Stock)
}

func (s *InvoiceServiceSuite) TestCreateInvoice_Quota() {
	tests := []struct {
		name    string
		used    int
		wantErr bool
	}{
		{name: "last invoice of the month", used: 14},
		{name: "quota exhausted", used: 15, wantErr: true},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.GetStores().UserRepo.Clear()
			s.GetStores().InvoiceRepo.Clear()
			s.CreateUser(types.SubscriptionPlanFree, tt.used)

			_, err := s.service.CreateInvoice(s.GetContext(), testutil.DefaultUserID, s.freeTextRequest())

			u, getErr := s.GetStores().UserRepo.Get(s.GetContext(), testutil.DefaultUserID)
			s.Require().NoError(getErr)
			count, _ := s.GetStores().InvoiceRepo.Count(s.GetContext(), &types.InvoiceFilter{OwnerID: testutil.DefaultUserID})

			if tt.wantErr {
				s.Error(err)
				s.True(ierr.IsQuotaExceeded(err))
				s.Equal(tt.used, u.MonthlyInvoiceCount)
				s.Equal(0, count)
				return
			}
			s.NoError(err)
			s.Equal(tt.used+1, u.MonthlyInvoiceCount)
			s.Equal(1, count)
		})
	}
}

func (s *InvoiceServiceSuite) TestCreateInvoice_UnlimitedPlan() {
	s.CreateUser(types.SubscriptionPlanFull, 100000)

	_, err := s.service.CreateInvoice(s.GetContext(), testutil.DefaultUserID, s.freeTextRequest())
	s.NoError(err)
}

func (s *InvoiceServiceSuite) TestCreateInvoice_InsufficientStockRollsBack() {
	s.CreateUser(types.SubscriptionPlanBasic, 0)
	scarce := s.CreateProduct(testutil.DefaultUserID, "20000", 2)

	_, err := s.service.CreateInvoice(s.GetContext(), testutil.DefaultUserID, dto.CreateInvoiceRequest{
		PaymentMethod: types.PaymentMethodCard,
		Items: []dto.CreateInvoiceItemRequest{
			{ProductID: lo.ToPtr(s.testData.product.ID), Quantity: 1},
			{ProductID: lo.ToPtr(scarce.ID), Quantity: 3},
		},
	})
	s.Error(err)
	s.True(ierr.IsInsufficientStock(err))

	first, _ := s.GetStores().ProductRepo.Get(s.GetContext(), s.testData.product.ID)
	s.Equal(10, first.Stock, "stock taken by earlier items must be restored")
	second, _ := s.GetStores().ProductRepo.Get(s.GetContext(), scarce.ID)
	s.Equal(2, second.Stock)

	u, _ := s.GetStores().UserRepo.Get(s.GetContext(), testutil.DefaultUserID)
	s.Equal(0, u.MonthlyInvoiceCount)
	count, _ := s.GetStores().InvoiceRepo.Count(s.GetContext(), &types.InvoiceFilter{OwnerID: testutil.DefaultUserID})
	s.Equal(0, count)
}

func (s *InvoiceServiceSuite) TestCreateInvoice_ExactStock() {
	s.CreateUser(types.SubscriptionPlanBasic, 0)
	scarce := s.CreateProduct(testutil.DefaultUserID, "20000", 3)

	_, err := s.service.CreateInvoice(s.GetContext(), testutil.DefaultUserID, dto.CreateInvoiceRequest{
		PaymentMethod: types.PaymentMethodCard,
		Items:         []dto.CreateInvoiceItemRequest{{ProductID: lo.ToPtr(scarce.ID), Quantity: 3}},
	})
	s.NoError(err)

	p, _ := s.GetStores().ProductRepo.Get(s.GetContext(), scarce.ID)
	s.Equal(0, p.Stock)
}

func (s *InvoiceServiceSuite) TestCreateInvoice_ForeignReferences() {
	s.CreateUser(types.SubscriptionPlanBasic, 0)
	foreignCustomer := s.CreateCustomer(otherUserID)
	foreignProduct := s.CreateProduct(otherUserID, "1000", 5)

	req := s.freeTextRequest()
	req.CustomerID = lo.ToPtr(foreignCustomer.ID)
	_, err := s.service.CreateInvoice(s.GetContext(), testutil.DefaultUserID, req)
	s.True(ierr.IsPermissionDenied(err))

	req = s.freeTextRequest()
	req.Items = []dto.CreateInvoiceItemRequest{{ProductID: lo.ToPtr(foreignProduct.ID), Quantity: 1}}
	_, err = s.service.CreateInvoice(s.GetContext(), testutil.DefaultUserID, req)
	s.True(ierr.IsPermissionDenied(err))

	p, _ := s.GetStores().ProductRepo.Get(s.GetContext(), foreignProduct.ID)
	s.Equal(5, p.Stock)
}

func (s *InvoiceServiceSuite) TestCreateInvoice_Validation() {
	s.CreateUser(types.SubscriptionPlanBasic, 0)

	tests := []struct {
		name   string
		mutate func(r *dto.CreateInvoiceRequest)
	}{
		{name: "no items", mutate: func(r *dto.CreateInvoiceRequest) { r.Items = nil }},
		{name: "zero quantity", mutate: func(r *dto.CreateInvoiceRequest) { r.Items[0].Quantity = 0 }},
		{name: "missing price", mutate: func(r *dto.CreateInvoiceRequest) { r.Items[0].UnitPrice = nil }},
		{name: "unknown payment method", mutate: func(r *dto.CreateInvoiceRequest) { r.PaymentMethod = "BITCOIN" }},
		{name: "negative price", mutate: func(r *dto.CreateInvoiceRequest) {
			r.Items[0].UnitPrice = lo.ToPtr(decimal.NewFromInt(-5))
		}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			req := s.freeTextRequest()
			tt.mutate(&req)
			_, err := s.service.CreateInvoice(s.GetContext(), testutil.DefaultUserID, req)
			s.Error(err)
			s.True(ierr.IsValidation(err), err.Error())
		})
	}
}

func (s *InvoiceServiceSuite) TestCreateInvoice_EmitImmediately() {
	s.CreateUser(types.SubscriptionPlanBasic, 0)
	req := s.freeTextRequest()
	req.EmitImmediately = true

	resp, err := s.service.CreateInvoice(s.GetContext(), testutil.DefaultUserID, req)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusEmitted, resp.Status)
	s.Equal(1, s.GetFiscalClient().Calls(factus.OpSubmit))
}

func (s *InvoiceServiceSuite) TestCreateInvoice_EmitImmediatelyFailureKeepsDraft() {
	s.CreateUser(types.SubscriptionPlanBasic, 0)
	s.GetFiscalClient().FailWith(factus.OpSubmit, ierr.NewError("provider down").Mark(ierr.ErrExternalService))
	req := s.freeTextRequest()
	req.EmitImmediately = true

	resp, err := s.service.CreateInvoice(s.GetContext(), testutil.DefaultUserID, req)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusDraft, resp.Status)

	stored, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusDraft, stored.Status)
	s.Nil(stored.ExternalID)
}

func (s *InvoiceServiceSuite) TestEmitInvoice_DemoMode() {
	s.CreateUser(types.SubscriptionPlanFree, 0)

	resp := s.createEmitted()

	s.Equal(types.InvoiceStatusEmitted, resp.Status)
	s.Regexp(`^FACTUS-\d+`, lo.FromPtr(resp.ExternalID))
	s.Regexp(`^SETP\d{9}$`, lo.FromPtr(resp.ExternalNumber))
	s.Len(lo.FromPtr(resp.CUFE), 96)
	s.Contains(lo.FromPtr(resp.QRCode), lo.FromPtr(resp.CUFE))
	s.Equal(types.AuthorityStatusRegistered, lo.FromPtr(resp.AuthorityStatus))
	s.Equal(factus.DemoStatusCreated, lo.FromPtr(resp.ExternalStatus))
	s.Equal(2, resp.Version)
}

func (s *InvoiceServiceSuite) TestEmitInvoice_NotDraft() {
	s.CreateUser(types.SubscriptionPlanBasic, 0)
	emitted := s.createEmitted()

	_, err := s.service.EmitInvoice(s.GetContext(), emitted.ID, testutil.DefaultUserID)
	s.True(ierr.IsInvalidState(err))
	s.Equal(1, s.GetFiscalClient().Calls(factus.OpSubmit))
}

func (s *InvoiceServiceSuite) TestEmitInvoice_Concurrent() {
	s.CreateUser(types.SubscriptionPlanBasic, 0)
	draft := s.createDraft()
	s.GetFiscalClient().SetDelay(20 * time.Millisecond)

	var (
		mu   sync.Mutex
		errs []error
		wg   conc.WaitGroup
	)
	for i := 0; i < 2; i++ {
		wg.Go(func() {
			_, err := s.service.EmitInvoice(s.GetContext(), draft.ID, testutil.DefaultUserID)
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		})
	}
	wg.Wait()

	failed := lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	s.Len(failed, 1)
	s.True(ierr.IsInvalidState(failed[0]))
	s.Equal(1, s.GetFiscalClient().Calls(factus.OpSubmit))
}

func (s *InvoiceServiceSuite) TestEmitInvoice_RequiresCustomer() {
	s.CreateUser(types.SubscriptionPlanBasic, 0)
	req := s.freeTextRequest()
	req.CustomerID = nil
	draft, err := s.service.CreateInvoice(s.GetContext(), testutil.DefaultUserID, req)
	s.Require().NoError(err)

	_, err = s.service.EmitInvoice(s.GetContext(), draft.ID, testutil.DefaultUserID)
	s.True(ierr.IsValidation(err))
	s.Equal(0, s.GetFiscalClient().Calls(factus.OpSubmit))
}

func (s *InvoiceServiceSuite) TestEmitInvoice_FreePlanOutsideDemo() {
	cfg := config.GetDefaultConfig()
	cfg.Factus.DemoMode = false
	svc := s.newService(cfg)
	s.CreateUser(types.SubscriptionPlanFree, 0)

	draft, err := svc.CreateInvoice(s.GetContext(), testutil.DefaultUserID, s.freeTextRequest())
	s.Require().NoError(err)

	_, err = svc.EmitInvoice(s.GetContext(), draft.ID, testutil.DefaultUserID)
	s.True(ierr.IsPermissionDenied(err))
	s.Equal(0, s.GetFiscalClient().Calls(factus.OpSubmit))
}

func (s *InvoiceServiceSuite) TestEmitInvoice_ProviderError() {
	s.CreateUser(types.SubscriptionPlanBasic, 0)
	draft := s.createDraft()
	s.GetFiscalClient().FailWith(factus.OpSubmit, ierr.NewError("422").
		WithHint("Fiscal provider error: invalid customer").
		Mark(ierr.ErrExternalService))

	_, err := s.service.EmitInvoice(s.GetContext(), draft.ID, testutil.DefaultUserID)
	s.True(ierr.IsExternalService(err))

	stored, _ := s.GetStores().InvoiceRepo.Get(s.GetContext(), draft.ID)
	s.Equal(types.InvoiceStatusDraft, stored.Status)
	s.Equal(1, stored.Version)
}

func (s *InvoiceServiceSuite) TestEmitInvoice_AnswerWithoutBillKeepsDraft() {
	s.CreateUser(types.SubscriptionPlanBasic, 0)
	draft := s.createDraft()
	env := &factus.BillEnvelope{Status: "OK", Message: "procesando"}
	s.GetFiscalClient().SetSubmitEnvelope(env)

	_, err := s.service.EmitInvoice(s.GetContext(), draft.ID, testutil.DefaultUserID)
	s.Require().Error(err)
	s.True(ierr.IsExternalService(err))

	stored, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), draft.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusDraft, stored.Status)
	s.Equal(1, stored.Version)
	s.Nil(stored.ExternalID)
	s.Nil(stored.ExternalNumber)
	s.Nil(stored.CUFE)

	// a later emission with a complete answer succeeds
	s.GetFiscalClient().SetSubmitEnvelope(nil)
	emitted, err := s.service.EmitInvoice(s.GetContext(), draft.ID, testutil.DefaultUserID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusEmitted, emitted.Status)
}

func (s *InvoiceServiceSuite) TestSyncInvoice_RejectedGoesBackToDraft() {
	s.CreateUser(types.SubscriptionPlanBasic, 0)
	emitted := s.createEmitted()
	before, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), emitted.ID)
	s.Require().NoError(err)
	s.GetFiscalClient().SetStatus(lo.FromPtr(emitted.ExternalID), "Rejected")

	resp, err := s.service.SyncInvoice(s.GetContext(), emitted.ID, testutil.DefaultUserID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusDraft, resp.Status)
	s.Equal("Rejected", lo.FromPtr(resp.ExternalStatus))
	s.Equal("Rejected", lo.FromPtr(resp.AuthorityStatus))

	stored, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), emitted.ID)
	s.Require().NoError(err)
	s.Require().Len(stored.Items, len(before.Items))
	for i, item := range stored.Items {
		want := before.Items[i]
		s.Equal(want.ID, item.ID)
		s.Equal(want.ProductName, item.ProductName)
		s.Equal(want.Quantity, item.Quantity)
		s.True(want.UnitPrice.Equal(item.UnitPrice), item.UnitPrice.String())
		s.True(want.TaxRate.Equal(item.TaxRate), item.TaxRate.String())
		s.True(want.Subtotal.Equal(item.Subtotal), item.Subtotal.String())
		s.True(want.TaxAmount.Equal(item.TaxAmount), item.TaxAmount.String())
		s.True(want.Total.Equal(item.Total), item.Total.String())
	}
	s.True(before.Subtotal.Equal(stored.Subtotal), stored.Subtotal.String())
	s.True(before.TaxAmount.Equal(stored.TaxAmount), stored.TaxAmount.String())
	s.True(before.Total.Equal(stored.Total), stored.Total.String())

	// a corrected draft can be emitted again
	again, err := s.service.EmitInvoice(s.GetContext(), emitted.ID, testutil.DefaultUserID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusEmitted, again.Status)
}

func (s *InvoiceServiceSuite) TestSyncInvoice_AcceptedKeepsStatus() {
	s.CreateUser(types.SubscriptionPlanBasic, 0)
	emitted := s.createEmitted()
	s.GetFiscalClient().SetStatus(lo.FromPtr(emitted.ExternalID), "Validada")

	resp, err := s.service.SyncInvoice(s.GetContext(), emitted.ID, testutil.DefaultUserID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusEmitted, resp.Status)
	s.Equal("Validada", lo.FromPtr(resp.AuthorityStatus))
}

func (s *InvoiceServiceSuite) TestSyncInvoice_NotSent() {
	s.CreateUser(types.SubscriptionPlanBasic, 0)
	draft := s.createDraft()

	_, err := s.service.SyncInvoice(s.GetContext(), draft.ID, testutil.DefaultUserID)
	s.True(ierr.IsInvalidState(err))
	s.Equal(0, s.GetFiscalClient().Calls(factus.OpStatus))
}

func (s *InvoiceServiceSuite) TestCancelInvoice() {
	s.CreateUser(types.SubscriptionPlanBasic, 0)
	emitted := s.createEmitted()

	resp, err := s.service.CancelInvoice(s.GetContext(), emitted.ID, testutil.DefaultUserID, dto.CancelInvoiceRequest{})
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusEmitted, resp.Status)
	s.Equal(factus.DemoStatusCancelled, lo.FromPtr(resp.ExternalStatus))
	s.Equal([]string{config.DefaultCancelMotive}, s.GetFiscalClient().Motives())

	draft := s.createDraft()
	_, err = s.service.CancelInvoice(s.GetContext(), draft.ID, testutil.DefaultUserID, dto.CancelInvoiceRequest{Motive: "error"})
	s.True(ierr.IsInvalidState(err))
}

func (s *InvoiceServiceSuite) TestDownloads() {
	s.CreateUser(types.SubscriptionPlanBasic, 0)
	emitted := s.createEmitted()
	number := lo.FromPtr(emitted.ExternalNumber)

	xml, err := s.service.DownloadXML(s.GetContext(), emitted.ID, testutil.DefaultUserID)
	s.Require().NoError(err)
	s.Equal("FACTURA_"+number+".xml", xml.FileName)
	s.Equal(factus.DocumentKindXML, xml.Kind)
	s.Equal(emitted.ID, xml.InvoiceID)

	pdf, err := s.service.DownloadPDF(s.GetContext(), emitted.ID, testutil.DefaultUserID)
	s.Require().NoError(err)
	s.Equal("FACTURA_"+number+".pdf", pdf.FileName)
	s.NotEmpty(pdf.Base64Content)

	draft := s.createDraft()
	_, err = s.service.DownloadPDF(s.GetContext(), draft.ID, testutil.DefaultUserID)
	s.True(ierr.IsInvalidState(err))
}

func (s *InvoiceServiceSuite) TestSettle() {
	s.CreateUser(types.SubscriptionPlanBasic, 0)

	paid := s.createEmitted()
	resp, err := s.service.MarkPaid(s.GetContext(), paid.ID, testutil.DefaultUserID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusPaid, resp.Status)

	_, err = s.service.MarkOverdue(s.GetContext(), paid.ID, testutil.DefaultUserID)
	s.True(ierr.IsInvalidState(err))

	overdue := s.createEmitted()
	resp, err = s.service.MarkOverdue(s.GetContext(), overdue.ID, testutil.DefaultUserID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusOverdue, resp.Status)

	draft := s.createDraft()
	_, err = s.service.MarkPaid(s.GetContext(), draft.ID, testutil.DefaultUserID)
	s.True(ierr.IsInvalidState(err))
}

func (s *InvoiceServiceSuite) TestDeleteInvoice() {
	s.CreateUser(types.SubscriptionPlanBasic, 0)

	draft := s.createDraft()
	s.NoError(s.service.DeleteInvoice(s.GetContext(), draft.ID, testutil.DefaultUserID))
	_, err := s.service.GetInvoice(s.GetContext(), draft.ID, testutil.DefaultUserID)
	s.True(ierr.IsNotFound(err))

	emitted := s.createEmitted()
	err = s.service.DeleteInvoice(s.GetContext(), emitted.ID, testutil.DefaultUserID)
	s.True(ierr.IsInvalidState(err))
}

func (s *InvoiceServiceSuite) TestOwnership() {
	s.CreateUser(types.SubscriptionPlanBasic, 0)
	draft := s.createDraft()

	_, err := s.service.GetInvoice(s.GetContext(), draft.ID, otherUserID)
	s.True(ierr.IsPermissionDenied(err))
	_, err = s.service.EmitInvoice(s.GetContext(), draft.ID, otherUserID)
	s.True(ierr.IsPermissionDenied(err))
	err = s.service.DeleteInvoice(s.GetContext(), draft.ID, otherUserID)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *InvoiceServiceSuite) TestListInvoices() {
	s.CreateUser(types.SubscriptionPlanBasic, 0)
	s.createDraft()
	s.createDraft()
	emitted := s.createEmitted()

	all, err := s.service.ListInvoices(s.GetContext(), &types.InvoiceFilter{OwnerID: testutil.DefaultUserID})
	s.Require().NoError(err)
	s.Len(all.Items, 3)
	s.Equal(3, all.Pagination.Total)

	byStatus, err := s.service.ListInvoicesByStatus(s.GetContext(), testutil.DefaultUserID, types.InvoiceStatusEmitted)
	s.Require().NoError(err)
	s.Require().Len(byStatus.Items, 1)
	s.Equal(emitted.ID, byStatus.Items[0].ID)

	paged, err := s.service.ListInvoices(s.GetContext(), &types.InvoiceFilter{
		OwnerID: testutil.DefaultUserID,
		Limit:   lo.ToPtr(2),
	})
	s.Require().NoError(err)
	s.Len(paged.Items, 2)
	s.Equal(3, paged.Pagination.Total)

	other, err := s.service.ListInvoices(s.GetContext(), &types.InvoiceFilter{OwnerID: otherUserID})
	s.Require().NoError(err)
	s.Empty(other.Items)

	_, err = s.service.ListInvoices(s.GetContext(), &types.InvoiceFilter{})
	s.True(ierr.IsValidation(err))

	_, err = s.service.ListInvoicesByStatus(s.GetContext(), testutil.DefaultUserID, "ARCHIVED")
	s.True(ierr.IsValidation(err))
}

func tax19() decimal.Decimal {
	return decimal.NewFromInt(19)
}
