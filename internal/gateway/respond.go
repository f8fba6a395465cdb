package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/sal-retail/backoffice/internal/apiclient"
	"github.com/sal-retail/backoffice/internal/domain/order"
	"github.com/sal-retail/backoffice/internal/domain/product"
	"github.com/sal-retail/backoffice/internal/resource"
	"github.com/sal-retail/backoffice/internal/session"
)

// errorBody is the uniform error response shape.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRawList writes an already-encoded JSON array.
func writeRawList(w http.ResponseWriter, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// writeError maps domain and upstream failures onto HTTP statuses. Every
// failure is logged and answered with the uniform error body; nothing is
// retried here.
func (g *Gateway) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	var (
		validationErr *resource.ValidationError
		upstreamErr   *apiclient.Error
	)
	switch {
	case errors.Is(err, session.ErrNoSession),
		errors.Is(err, session.ErrNotAdmin),
		errors.Is(err, apiclient.ErrUnauthorized):
		status = http.StatusUnauthorized
		msg = err.Error()
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, apiclient.ErrNotFound),
		errors.Is(err, errEditNotFound),
		errors.Is(err, errUnknownEntity):
		status = http.StatusNotFound
		msg = err.Error()
	case errors.As(err, &validationErr),
		errors.Is(err, order.ErrIndexOutOfRange),
		errors.Is(err, order.ErrUnknownField),
		errors.Is(err, order.ErrNoProducts),
		errors.Is(err, order.ErrPaymentMismatch),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, errBadRequest):
		status = http.StatusUnprocessableEntity
		msg = err.Error()
	case errors.Is(err, apiclient.ErrStale):
		// A newer fetch superseded this one; the client drops the result.
		status = http.StatusConflict
		msg = err.Error()
	case errors.As(err, &upstreamErr):
		// Upstream 4xx carries a meaningful rejection; 5xx is a bad
		// gateway from the browser's point of view.
		if upstreamErr.StatusCode >= 400 && upstreamErr.StatusCode < 500 {
			status = upstreamErr.StatusCode
		} else {
			status = http.StatusBadGateway
		}
		msg = err.Error()
	}

	zctx.From(ctx).Warn("Request failed",
		zap.Int("status", status),
		zap.Error(err),
	)
	writeJSON(w, status, errorBody{Code: status, Message: msg})
}

// errBadRequest marks malformed request bodies and path values.
var errBadRequest = errors.New("bad request")
