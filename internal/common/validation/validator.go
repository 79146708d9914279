// Package validation checks struct fields against their validate tags using
// go-playground/validator, with rules for the string-typed settings read from
// the environment.
package validation

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"callmonitor-bridge/internal/common/errors"
)

// Validator validates structs by their validate tags. Fields are reported
// by their env tag when present.
type Validator struct {
	validator *validator.Validate
}

// FieldError is a single failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// New creates a validator with the custom rules registered.
func New() *Validator {
	v := validator.New()

	registerRules(v)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("env"); name != "" {
			return name
		}
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &Validator{validator: v}
}

// ValidateStruct returns a config error listing every failed field, or nil.
func (v *Validator) ValidateStruct(s interface{}) error {
	err := v.validator.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrors := v.fieldErrors(err)
	messages := make([]string, len(fieldErrors))
	for i, e := range fieldErrors {
		messages[i] = e.Message
	}
	return errors.ConfigError(strings.Join(messages, "; "))
}

func (v *Validator) fieldErrors(err error) []FieldError {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "unknown", Tag: "error", Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: formatFieldError(fe),
		})
	}
	return out
}

func formatFieldError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "port":
		return fmt.Sprintf("%s must be a valid port number between 1 and 65535", err.Field())
	case "duration":
		return fmt.Sprintf("%s must be a positive duration (e.g., '15s', '2m')", err.Field())
	case "cron_expression":
		return fmt.Sprintf("%s is not a valid cron spec", err.Field())
	case "intmin":
		return fmt.Sprintf("%s must be a number of at least %s", err.Field(), err.Param())
	case "intmax":
		return fmt.Sprintf("%s must be a number of at most %s", err.Field(), err.Param())
	case "startswith":
		return fmt.Sprintf("%s must start with %s", err.Field(), err.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", err.Field())
	default:
		return fmt.Sprintf("%s failed validation: %s", err.Field(), err.Tag())
	}
}

func registerRules(v *validator.Validate) {
	v.RegisterValidation("port", func(fl validator.FieldLevel) bool {
		port, err := strconv.Atoi(fl.Field().String())
		return err == nil && port >= 1 && port <= 65535
	})

	v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d > 0
	})

	// Standard five-field spec or a descriptor such as "@every 6h"
	v.RegisterValidation("cron_expression", func(fl validator.FieldLevel) bool {
		_, err := cron.ParseStandard(fl.Field().String())
		return err == nil
	})

	v.RegisterValidation("intmin", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Field().String())
		limit, perr := strconv.Atoi(fl.Param())
		return err == nil && perr == nil && n >= limit
	})

	v.RegisterValidation("intmax", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Field().String())
		limit, perr := strconv.Atoi(fl.Param())
		return err == nil && perr == nil && n <= limit
	})
}

var defaultValidator = New()

// ValidateStruct validates s with the shared validator.
func ValidateStruct(s interface{}) error {
	return defaultValidator.ValidateStruct(s)
}
