package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "papertrack/internal/errors"
)

// DefaultMaxBodySize bounds JSON request bodies
const DefaultMaxBodySize int64 = 1 << 20

// Validator decodes JSON request bodies and validates them with struct tags
type Validator struct {
	validator   *validator.Validate
	logger      *slog.Logger
	maxBodySize int64
}

// NewValidator creates a validator that reports fields by their JSON names
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if logger == nil {
		logger = slog.Default()
	}

	return &Validator{
		validator:   v,
		logger:      logger.With(slog.String("component", "validator")),
		maxBodySize: DefaultMaxBodySize,
	}
}

// DecodeJSON reads r's body into dst and validates it. Unknown fields are
// rejected. Errors are APIErrors ready for the error handler.
func (v *Validator) DecodeJSON(r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return apierrors.NewWithDetails(
			http.StatusUnsupportedMediaType,
			"UNSUPPORTED_MEDIA_TYPE",
			"Unsupported content type",
			map[string]any{"content_type": ct, "allowed": []string{"application/json"}},
		)
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, v.maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		v.logger.DebugContext(r.Context(), "rejected request body",
			slog.String("error", err.Error()),
			slog.String("request_id", GetRequestID(r.Context())))
		if errors.Is(err, io.EOF) {
			return apierrors.New(http.StatusBadRequest, "INVALID_REQUEST", "Request body is required")
		}
		return apierrors.InvalidRequestWithError(err)
	}

	return v.ValidateStruct(dst)
}

// ValidateStruct validates a struct and returns validation errors
func (v *Validator) ValidateStruct(s any) error {
	err := v.validator.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	validationErrors := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		validationErrors = append(validationErrors, apierrors.ValidationError{
			Field:   fe.Namespace(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(validationErrors)
}

func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// QueryInt parses an integer query parameter within [min, max].
// An absent parameter yields def.
func QueryInt(r *http.Request, param string, min, max, def int) (int, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return 0, apierrors.InvalidParameter(param, raw)
	}
	return n, nil
}

// QueryEnum returns the query parameter if it is one of allowed.
// An absent parameter yields def.
func QueryEnum(r *http.Request, param string, allowed []string, def string) (string, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return def, nil
	}
	for _, a := range allowed {
		if raw == a {
			return raw, nil
		}
	}
	return "", apierrors.InvalidParameter(param, raw)
}
