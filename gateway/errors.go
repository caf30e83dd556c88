package gateway

import (
	"errors"
	"net/http"

	"github.com/randalmurphal/llmroute/accounts"
	"github.com/randalmurphal/llmroute/catalog"
	"github.com/randalmurphal/llmroute/route"
	"github.com/randalmurphal/llmroute/segment"
)

// Error codes carried in admission failure responses.
const (
	codeUnauthenticated = "unauthenticated"
	codeBadRequest      = "bad_request"
	codeTierForbidden   = "tier_forbidden"
	codeModelNotFound   = "model_not_found"
	codeNoEligibleModel = "no_eligible_model"
	codeQuotaExceeded   = "quota_exceeded"
	codeInternal        = "internal"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError sends an admission failure as a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeRouteError maps a routing failure onto its HTTP status.
func writeRouteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrModelNotFound):
		writeError(w, http.StatusNotFound, codeModelNotFound, err.Error())
	case errors.Is(err, route.ErrTierForbidden):
		writeError(w, http.StatusForbidden, codeTierForbidden, err.Error())
	case errors.Is(err, route.ErrNoEligibleModel):
		writeError(w, http.StatusNotFound, codeNoEligibleModel, err.Error())
	case errors.Is(err, segment.ErrInvalidChunkSize):
		writeError(w, http.StatusInternalServerError, codeInternal, "segmentation misconfigured")
	default:
		writeError(w, http.StatusInternalServerError, codeInternal, err.Error())
	}
}

// writeAuthError sends the 401 for a missing or unknown API key.
func writeAuthError(w http.ResponseWriter, err error) {
	if errors.Is(err, accounts.ErrUnknownKey) {
		writeError(w, http.StatusUnauthorized, codeUnauthenticated, "unknown API key")
		return
	}
	writeError(w, http.StatusInternalServerError, codeInternal, err.Error())
}
