package testutil

import (
	"context"
	"time"

	"github.com/factusapp/factusapp/internal/config"
	"github.com/factusapp/factusapp/internal/domain/customer"
	"github.com/factusapp/factusapp/internal/domain/product"
	"github.com/factusapp/factusapp/internal/domain/user"
	"github.com/factusapp/factusapp/internal/integration/factus"
	"github.com/factusapp/factusapp/internal/logger"
	"github.com/factusapp/factusapp/internal/metrics"
	"github.com/factusapp/factusapp/internal/postgres"
	"github.com/factusapp/factusapp/internal/types"
	"github.com/factusapp/factusapp/internal/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// Stores holds the in-memory repositories used by service tests
type Stores struct {
	InvoiceRepo  *InMemoryInvoiceStore
	UserRepo     *InMemoryUserStore
	CustomerRepo *InMemoryCustomerStore
	ProductRepo  *InMemoryProductStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	stores  Stores
	db      postgres.IClient
	logger  *logger.Logger
	config  *config.Configuration
	metrics *metrics.Metrics
	fiscal  *MockFiscalClient
	mapper  *factus.Mapper
	now     time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()
	s.logger = logger.NewNoopLogger()
	s.metrics = metrics.NewNoop()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.config = config.GetDefaultConfig()
	s.stores = Stores{
		InvoiceRepo:  NewInMemoryInvoiceStore(),
		UserRepo:     NewInMemoryUserStore(),
		CustomerRepo: NewInMemoryCustomerStore(),
		ProductRepo:  NewInMemoryProductStore(),
	}
	s.db = NewMockPostgresClient(s.logger,
		s.stores.InvoiceRepo,
		s.stores.UserRepo,
		s.stores.CustomerRepo,
		s.stores.ProductRepo,
	)
	s.fiscal = NewMockFiscalClient(s.logger)

	var err error
	s.mapper, err = factus.NewMapper(s.config)
	s.Require().NoError(err)
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.stores.InvoiceRepo.Clear()
	s.stores.UserRepo.Clear()
	s.stores.CustomerRepo.Clear()
	s.stores.ProductRepo.Clear()
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceTestSuite) GetMetrics() *metrics.Metrics {
	return s.metrics
}

func (s *BaseServiceTestSuite) GetFiscalClient() *MockFiscalClient {
	return s.fiscal
}

func (s *BaseServiceTestSuite) GetFiscalMapper() *factus.Mapper {
	return s.mapper
}

func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}

// CreateUser stores a user on plan with used invoices already counted this month
func (s *BaseServiceTestSuite) CreateUser(plan types.SubscriptionPlan, used int) *user.User {
	return s.CreateUserWithID(DefaultUserID, plan, used)
}

// CreateUserWithID is CreateUser for a user other than the context one
func (s *BaseServiceTestSuite) CreateUserWithID(id string, plan types.SubscriptionPlan, used int) *user.User {
	u := user.NewUser("Tienda Prueba", "tienda@example.com", plan)
	u.ID = id
	u.MonthlyInvoiceCount = used
	s.Require().NoError(s.stores.UserRepo.Create(s.ctx, u))
	return u
}

// CreateCustomer stores a customer owned by ownerID
func (s *BaseServiceTestSuite) CreateCustomer(ownerID string) *customer.Customer {
	c := &customer.Customer{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CUSTOMER),
		OwnerID:        ownerID,
		DocumentType:   types.DocumentTypeCC,
		DocumentNumber: "1020304050",
		Name:           "Ana Gómez",
		Address:        "Carrera 7 # 12-34",
		City:           "Bogotá",
		Email:          "ana@example.com",
		Phone:          "3001234567",
		BaseModel:      types.GetDefaultBaseModel(),
	}
	s.Require().NoError(s.stores.CustomerRepo.Create(s.ctx, c))
	return c
}

// CreateProduct stores a product owned by ownerID
func (s *BaseServiceTestSuite) CreateProduct(ownerID string, price string, stock int) *product.Product {
	p := &product.Product{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PRODUCT),
		OwnerID:     ownerID,
		Code:        "SKU-001",
		Name:        "Camiseta básica",
		Category:    "Ropa",
		Price:       decimal.RequireFromString(price),
		TaxRate:     decimal.NewFromInt(19),
		TaxIncluded: false,
		Stock:       stock,
		StockMin:    product.DefaultStockMin,
		BaseModel:   types.GetDefaultBaseModel(),
	}
	s.Require().NoError(s.stores.ProductRepo.Create(s.ctx, p))
	return p
}
