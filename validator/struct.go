package validator

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/elphick/df-eval/ecode"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, key := range []string{"mapstructure", "json"} {
			name := strings.Split(field.Tag.Get(key), ",")[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return field.Name
	})
}

// errorMessages maps validation tags to friendly messages
var errorMessages = map[string]string{
	"required":      "The field '%s' is required.",
	"required_if":   "The field '%s' is required when %s.",
	"min":           "The field '%s' must be at least %s.",
	"max":           "The field '%s' must be at most %s.",
	"lte":           "The field '%s' must be less than or equal to %s.",
	"gte":           "The field '%s' must be greater than or equal to %s.",
	"gt":            "The field '%s' must be greater than %s.",
	"oneof":         "The field '%s' must be one of [%s].",
	"url":           "The field '%s' must be a valid URL.",
	"hostname_port": "The field '%s' must be a host:port address.",
}

// parseMessage constructs a friendly error message based on the validation tag
func parseMessage(field string, e validator.FieldError) string {
	if msg, exists := errorMessages[e.Tag()]; exists {
		switch strings.Count(msg, "%s") {
		case 1:
			return fmt.Sprintf(msg, field)
		case 2:
			return fmt.Sprintf(msg, field, e.Param())
		}
	}
	return fmt.Sprintf("Field '%s' is invalid: %s", field, e.Tag())
}

// fieldPath strips the root struct name from a namespace
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

// ValidateStruct validates a struct and returns a map of field paths to friendly error messages.
func ValidateStruct(s any) map[string]string {
	validationErrors := make(map[string]string)

	err := validate.Struct(s)
	if err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			for _, e := range validationErrs {
				path := fieldPath(e.Namespace())
				validationErrors[path] = parseMessage(path, e)
			}
		} else {
			validationErrors[""] = err.Error()
		}
	}

	return validationErrors
}

// Validate validates a struct and reports every violation in one
// ConfigurationError, fields in sorted order
func Validate(s any) error {
	errs := ValidateStruct(s)
	if len(errs) == 0 {
		return nil
	}

	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	messages := make([]string, len(fields))
	for i, field := range fields {
		messages[i] = errs[field]
	}
	return &ecode.ConfigurationError{Field: strings.Join(fields, ","), Message: strings.Join(messages, " ")}
}
