package types

import (
	ierr "github.com/factusapp/factusapp/internal/errors"
	"github.com/samber/lo"
)

// DocumentType identifies the kind of identity document a customer holds
type DocumentType string

const (
	// DocumentTypeCC cedula de ciudadania (national id)
	DocumentTypeCC DocumentType = "CC"
	// DocumentTypeNIT tax id
	DocumentTypeNIT DocumentType = "NIT"
	// DocumentTypeCE cedula de extranjeria (foreign id)
	DocumentTypeCE DocumentType = "CE"
	// DocumentTypeTI tarjeta de identidad (minor id)
	DocumentTypeTI DocumentType = "TI"
	// DocumentTypePP passport
	DocumentTypePP DocumentType = "PP"
	// DocumentTypeIDC customer identifier
	DocumentTypeIDC DocumentType = "IDC"
)

// DocumentTypes lists every supported document type
func DocumentTypes() []DocumentType {
	return []DocumentType{
		DocumentTypeCC,
		DocumentTypeNIT,
		DocumentTypeCE,
		DocumentTypeTI,
		DocumentTypePP,
		DocumentTypeIDC,
	}
}

func (d DocumentType) String() string {
	return string(d)
}

func (d DocumentType) Validate() error {
	if !lo.Contains(DocumentTypes(), d) {
		return ierr.NewError("invalid document type").
			WithHint("Invalid document type").
			WithReportableDetails(map[string]any{
				"allowed":       DocumentTypes(),
				"document_type": d,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
