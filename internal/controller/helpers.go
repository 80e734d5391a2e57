package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cassiomorais/webpay/internal/solitude"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

// ValidationError is a request that failed decoding or validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{solitude.ErrSellerNotConfigured, http.StatusBadRequest, "seller_not_configured"},
	{solitude.ErrNoBillingAccount, http.StatusBadRequest, "no_billing_account"},
	{solitude.ErrObjectDoesNotExist, http.StatusNotFound, "not_found"},
	{solitude.ErrProviderNotSet, http.StatusInternalServerError, "provider_not_set"},
	{solitude.ErrNotImplemented, http.StatusNotImplemented, "not_implemented"},
	{solitude.ErrClientDisabled, http.StatusServiceUnavailable, "backend_disabled"},
	{solitude.ErrBackendUnavailable, http.StatusServiceUnavailable, "backend_unavailable"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		resp.Code = "validation_error"
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			resp.Code = m.code
			writeJSON(w, m.status, resp)
			return
		}
	}

	// A 4xx from the backend means webpay sent something it should not
	// have; to the caller that is a bad gateway, not their fault.
	var clientErr *solitude.HTTPClientError
	if errors.As(err, &clientErr) {
		log.Error().Int("status", clientErr.StatusCode).Str("body", clientErr.Body).
			Msg("backend rejected request")
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error: "payment backend rejected the request",
			Code:  "backend_error",
		})
		return
	}

	log.Error().Err(err).Msg("unhandled error in handler")
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: "internal server error",
		Code:  "internal_error",
	})
}

func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	if err := validate.Struct(dst); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			return &ValidationError{Field: ve[0].Field(), Message: ve[0].Tag() + " validation failed"}
		}
		return &ValidationError{Field: "body", Message: err.Error()}
	}
	return nil
}
