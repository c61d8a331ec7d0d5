package httpserver

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult represents the result of validation
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

const maxIDLength = 100

var (
	validID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() {
		vld = validator.New()
		vld.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return vld
}

func invalid(field, code, msg string) ValidationResult {
	return ValidationResult{Errors: []ValidationError{{Field: field, Code: code, Message: msg}}}
}

// ValidateID validates a path or body identifier.
func ValidateID(field, id string) ValidationResult {
	switch {
	case id == "":
		return invalid(field, "REQUIRED", field+" is required")
	case len(id) > maxIDLength:
		return invalid(field, "TOO_LONG", field+" is too long (max 100 characters)")
	case !validID.MatchString(id):
		return invalid(field, "INVALID_FORMAT", field+" contains invalid characters")
	}
	return ValidationResult{Valid: true}
}

// ValidateK validates the optional top-K query parameter. Empty means default.
func ValidateK(raw string) (int, ValidationResult) {
	if raw == "" {
		return 0, ValidationResult{Valid: true}
	}
	k, err := strconv.Atoi(raw)
	if err != nil || k < 1 {
		return 0, invalid("k", "INVALID_FORMAT", "k must be a positive integer")
	}
	return k, ValidationResult{Valid: true}
}

// ValidateStruct runs struct tag validation and returns field errors keyed by JSON path.
func ValidateStruct(v any) ValidationResult {
	err := getValidator().Struct(v)
	if err == nil {
		return ValidationResult{Valid: true}
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return invalid("body", "INVALID", err.Error())
	}
	out := ValidationResult{}
	for _, fe := range ve {
		out.Errors = append(out.Errors, ValidationError{
			Field:   fieldPath(fe.Namespace()),
			Code:    strings.ToUpper(fe.Tag()),
			Message: "failed on " + fe.Tag(),
		})
	}
	return out
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
