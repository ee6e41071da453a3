package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/adapter/phoneemail"
	"github.com/hpyride/hpyride/internal/domain/models"
	t "github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/internal/service/admin"
	"github.com/hpyride/hpyride/internal/service/aichat"
	"github.com/hpyride/hpyride/internal/service/auth"
	"github.com/hpyride/hpyride/internal/service/chat"
	"github.com/hpyride/hpyride/internal/service/notification"
	"github.com/hpyride/hpyride/internal/service/otp"
	"github.com/hpyride/hpyride/pkg/validator"
)

type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, data any, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return errors.New("failed to encode json")
	}

	js = append(js, '\n')

	maps.Copy(w.Header(), headers)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)

	return nil
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	maxBytes := 1_048_576
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")

		// encoding/json has no typed error for unknown fields
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)

		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
		case errors.As(err, &invalidUnmarshalError):
			return fmt.Errorf("invalid unmarshal error: %w", err)
		default:
			return err
		}
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

// readIDParam parses the {id} style path value named key.
func readIDParam(r *http.Request, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(key))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s", key)
	}
	return id, nil
}

func readString(qs url.Values, key string, defaultValue string) string {
	s := qs.Get(key)
	if s == "" {
		return defaultValue
	}
	return s
}

func readInt(qs url.Values, key string, defaultValue int, v *validator.Validator) int {
	s := qs.Get(key)
	if s == "" {
		return defaultValue
	}

	i, err := strconv.Atoi(s)
	if err != nil {
		v.AddError(key, "must be an integer value")
		return defaultValue
	}
	return i
}

func readBool(qs url.Values, key string, v *validator.Validator) bool {
	s := qs.Get(key)
	if s == "" {
		return false
	}

	b, err := strconv.ParseBool(s)
	if err != nil {
		v.AddError(key, "must be a boolean value")
		return false
	}
	return b
}

func GetCode(err error) int {
	switch {
	case IsOneOf(err, t.ErrInvalidInput, t.ErrInvalidPhone, t.ErrInvalidOTP,
		chat.ErrEmptyMessage, chat.ErrMessageTooLong, chat.ErrNoRecipient,
		aichat.ErrEmptyConversation, notification.ErrEmptyPushToken,
		otp.ErrInvalidURL, phoneemail.ErrUntrustedURL, admin.ErrUnknownAction):
		return http.StatusBadRequest
	case IsOneOf(err, auth.ErrInvalidCredentials, auth.ErrInvalidToken, auth.ErrExpToken,
		admin.ErrInvalidCredentials, admin.ErrInvalidSession):
		return http.StatusUnauthorized
	case IsOneOf(err, t.ErrForbidden, t.ErrNotParticipant, t.ErrOwnRide, auth.ErrCannotCreateAdmin):
		return http.StatusForbidden
	case IsOneOf(err, t.ErrNotFound, t.ErrUserNotFound, t.ErrRideNotFound, t.ErrBookingNotFound):
		return http.StatusNotFound
	case IsOneOf(err, auth.ErrNotUniqueEmail, t.ErrVehicleExists, t.ErrAlreadySubmitted, t.ErrAlreadyRated,
		t.ErrInvalidTransition, t.ErrNoSeatsAvailable, t.ErrRideNotBookable, t.ErrRideCannotBeChanged,
		t.ErrBookingNotCompleted, t.ErrVehicleNotVerified):
		return http.StatusConflict
	case IsOneOf(err, t.ErrTooManyRequests):
		return http.StatusTooManyRequests
	case IsOneOf(err, t.ErrProviderFailed, t.ErrPublishFailed):
		return http.StatusBadGateway
	case IsOneOf(err, t.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func IsOneOf(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// readFilters reads page, page_size and sort. The first safelisted key is the default sort.
func readFilters(r *http.Request, v *validator.Validator, sortSafelist []string) models.Filters {
	qs := r.URL.Query()

	f := models.DefaultFilters(sortSafelist...)
	f.Page = readInt(qs, "page", f.Page, v)
	f.PageSize = readInt(qs, "page_size", f.PageSize, v)
	f.Sort = readString(qs, "sort", f.Sort)

	f.Validate(v)
	return f
}
