// Package validation provides request validation using go-playground/validator.
//
// A singleton validator is configured with the BoardGuru custom tags:
//
//   - slug: lowercase alphanumerics separated by single hyphens
//   - notreserved: the value is not one of the configured reserved slugs
//
// Field names in errors are the JSON names of the struct fields so they
// can be reported back to clients as-is.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/config"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// slugPattern matches lowercase words joined by single hyphens.
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// IsSlug reports whether s is a well-formed slug.
func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Get returns the singleton validator instance.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return IsSlug(fl.Field().String())
		})
		_ = validate.RegisterValidation("notreserved", func(fl validator.FieldLevel) bool {
			return !config.Get().IsReservedSlug(fl.Field().String())
		})
	})
	return validate
}

// Struct validates s. It returns nil or an *apperr.Error with code
// VALIDATION_ERROR whose Field is the first failing field and whose
// details list every failing field.
func Struct(s interface{}) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Validation("", err.Error())
	}

	fields := make([]map[string]interface{}, len(fieldErrs))
	for i, fe := range fieldErrs {
		fields[i] = map[string]interface{}{
			"field":   fe.Field(),
			"tag":     fe.Tag(),
			"message": translate(fe),
		}
	}

	first := fieldErrs[0]
	return apperr.Validation(first.Field(), translate(first)).
		WithDetail("fields", fields)
}

var messages = map[string]string{
	"required":    "%s is required",
	"email":       "%s must be a valid email address",
	"url":         "%s must be a valid URL",
	"uuid":        "%s must be a valid UUID",
	"slug":        "%s may only contain lowercase letters, digits and single hyphens",
	"notreserved": "%s is a reserved word",
}

var messagesWithParam = map[string]string{
	"oneof":   "%s must be one of: %s",
	"gte":     "%s must be greater than or equal to %s",
	"lte":     "%s must be less than or equal to %s",
	"gtfield": "%s must be after %s",
}

func translate(fe validator.FieldError) string {
	field := fe.Field()
	tag := fe.Tag()
	param := fe.Param()

	if tmpl, ok := messages[tag]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := messagesWithParam[tag]; ok {
		return fmt.Sprintf(tmpl, field, param)
	}

	isString := fe.Kind() == reflect.String
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	}
	return fmt.Sprintf("%s failed %s validation", field, tag)
}
