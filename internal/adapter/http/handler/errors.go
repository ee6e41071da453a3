package handler

import (
	"errors"
	"net/http"

	"github.com/hpyride/hpyride/internal/service/verification"
)

func errorResponse(w http.ResponseWriter, status int, message any) {
	env := envelope{"error": message}

	if err := writeJSON(w, status, env, nil); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// failedValidationResponse returns 422 UnprocessableEntity with the field errors.
// Repeating the request without modification fails the same way.
func failedValidationResponse(w http.ResponseWriter, errors map[string]string) {
	errorResponse(w, http.StatusUnprocessableEntity, errors)
}

func badRequestResponse(w http.ResponseWriter, message any) {
	errorResponse(w, http.StatusBadRequest, message)
}

func unauthorizedResponse(w http.ResponseWriter) {
	errorResponse(w, http.StatusUnauthorized, "authorization required")
}

func internalErrorResponse(w http.ResponseWriter, message any) {
	errorResponse(w, http.StatusInternalServerError, message)
}

// serviceErrorResponse answers a service failure. Field errors raised by a service
// are reported like request validation failures.
func serviceErrorResponse(w http.ResponseWriter, err error) {
	var verr *verification.ValidationError
	if errors.As(err, &verr) {
		failedValidationResponse(w, verr.Errors)
		return
	}

	code := GetCode(err)
	if code == http.StatusInternalServerError {
		internalErrorResponse(w, "the server encountered a problem and could not process your request")
		return
	}
	errorResponse(w, code, err.Error())
}
