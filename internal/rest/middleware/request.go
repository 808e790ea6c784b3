package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/factusapp/factusapp/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func RequestIDMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	ctx = context.WithValue(ctx, types.CtxRequestID, requestID)
	c.Request = c.Request.WithContext(ctx)

	c.Header(types.HeaderRequestID, requestID)

	c.Next()
}

// UserIDMiddleware takes the acting user from the X-User-ID header. Identity
// is established by the gateway in front of the service.
func UserIDMiddleware(c *gin.Context) {
	userID := strings.TrimSpace(c.GetHeader(types.HeaderUserID))
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
			Success: false,
			Error:   ErrorDetail{Display: "Missing " + types.HeaderUserID + " header"},
		})
		return
	}

	c.Request = c.Request.WithContext(types.SetUserID(c.Request.Context(), userID))
	c.Next()
}
