package repository

import (
	"github.com/factusapp/factusapp/internal/domain/customer"
	"github.com/factusapp/factusapp/internal/domain/invoice"
	"github.com/factusapp/factusapp/internal/domain/product"
	"github.com/factusapp/factusapp/internal/domain/user"
	"github.com/factusapp/factusapp/internal/logger"
	"github.com/factusapp/factusapp/internal/postgres"
	postgresRepo "github.com/factusapp/factusapp/internal/repository/postgres"
)

func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(db, logger)
}

func NewUserRepository(db *postgres.DB, logger *logger.Logger) user.Repository {
	return postgresRepo.NewUserRepository(db, logger)
}

func NewCustomerRepository(db *postgres.DB, logger *logger.Logger) customer.Repository {
	return postgresRepo.NewCustomerRepository(db, logger)
}

func NewProductRepository(db *postgres.DB, logger *logger.Logger) product.Repository {
	return postgresRepo.NewProductRepository(db, logger)
}
