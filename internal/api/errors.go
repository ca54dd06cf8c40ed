package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	customerrors "github.com/linkbridge/linkbridge/internal/errors"
)

// errorResponse is the failure body of every endpoint.
type errorResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	RawBody    string `json:"rawBody,omitempty"`
	RequestURL string `json:"requestUrl,omitempty"`
	Kind       string `json:"kind,omitempty"`
}

// writeError maps err onto its status and body. Errors that are not
// BridgeErrors are logged and reported as a generic 500.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	be, ok := customerrors.As(err)
	if !ok {
		logger.Error("unclassified error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Status: "error", Message: "internal error"})
		return
	}
	if be.HTTPStatus() >= 500 && !be.Kind.IsProvider() {
		logger.Error("request failed", zap.String("kind", string(be.Kind)), zap.Error(be))
	}
	_ = c.Error(be)
	c.JSON(be.HTTPStatus(), errorResponse{
		Status:     be.WireStatus(),
		Message:    be.Message,
		Detail:     be.Detail,
		RawBody:    be.RawBody,
		RequestURL: be.RequestURL,
		Kind:       string(be.Kind),
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{
		Status:  "error",
		Message: msg,
		Kind:    string(customerrors.KindMissingParameter),
	})
}
