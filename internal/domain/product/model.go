package product

import (
	"github.com/factusapp/factusapp/internal/types"
	"github.com/shopspring/decimal"
)

// Product is an inventory item a merchant sells
type Product struct {
	ID          string          `db:"id" json:"id"`
	OwnerID     string          `db:"owner_id" json:"owner_id"`
	Code        string          `db:"code" json:"code"`
	Name        string          `db:"name" json:"name"`
	Category    string          `db:"category" json:"category"`
	Price       decimal.Decimal `db:"price" json:"price"`
	TaxRate     decimal.Decimal `db:"tax_rate" json:"tax_rate"`
	TaxIncluded bool            `db:"tax_included" json:"tax_included"`
	Stock       int             `db:"stock" json:"stock"`
	StockMin    int             `db:"stock_min" json:"stock_min"`
	types.BaseModel
}

const DefaultStockMin = 5

// BelongsTo reports whether the product is owned by ownerID
func (p *Product) BelongsTo(ownerID string) bool {
	return p != nil && p.OwnerID == ownerID
}

// HasStock reports whether qty units can be taken from stock
func (p *Product) HasStock(qty int) bool {
	return p.Stock >= qty
}

// IsLowStock is true when stock is at or below the configured minimum
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.StockMin
}
