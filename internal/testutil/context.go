package testutil

import (
	"context"

	"github.com/factusapp/factusapp/internal/types"
)

// DefaultUserID is the owner used by test contexts
const DefaultUserID = "user_00000000000000000000000000"

func SetupContext() context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, types.CtxUserID, DefaultUserID)
	ctx = context.WithValue(ctx, types.CtxRequestID, types.GenerateUUID())
	return ctx
}
