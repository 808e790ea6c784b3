package validator

import (
	"testing"

	ierr "github.com/factusapp/factusapp/internal/errors"
	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name     string `validate:"required"`
	Quantity int    `validate:"gt=0"`
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(sample{Name: "a", Quantity: 1}))

	err := ValidateRequest(sample{Quantity: 0})
	assert.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}
