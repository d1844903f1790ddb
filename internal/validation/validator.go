// Package validation checks inbound payloads before they reach persistence.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ukydev/roadside-assist/internal/models"
)

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Validator wraps a configured validator.Validate.
type Validator struct {
	validate *validator.Validate
}

// New returns a Validator with the domain tags registered.
func New() *Validator {
	v := validator.New()

	// Report JSON names so messages match what the client sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("service_type", func(fl validator.FieldLevel) bool {
		return models.IsValidServiceType(models.ServiceType(fl.Field().String()))
	})
	_ = v.RegisterValidation("request_status", func(fl validator.FieldLevel) bool {
		return models.IsValidStatus(models.RequestStatus(fl.Field().String()))
	})
	_ = v.RegisterValidation("payment_status", func(fl validator.FieldLevel) bool {
		return models.IsValidPaymentStatus(models.PaymentStatus(fl.Field().String()))
	})
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return IsCurrencyCode(fl.Field().String())
	})

	return &Validator{validate: v}
}

// IsCurrencyCode reports whether code looks like an upper case ISO 4217 code.
func IsCurrencyCode(code string) bool {
	return currencyCode.MatchString(code)
}

// Struct validates s and returns the rejected fields, or nil when s is valid.
func (v *Validator) Struct(s interface{}) []FieldError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "service_type":
		return fmt.Sprintf("%s must be one of the supported service types", fe.Field())
	case "request_status":
		return fmt.Sprintf("%s must be one of pending, assigned, in_progress, completed, cancelled", fe.Field())
	case "payment_status":
		return fmt.Sprintf("%s must be one of pending, completed, failed", fe.Field())
	case "currency":
		return fmt.Sprintf("%s must be a 3 letter ISO currency code", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "gt", "gte":
		return fmt.Sprintf("%s must be %s %s", fe.Field(), comparison(fe.Tag()), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func comparison(tag string) string {
	if tag == "gt" {
		return "greater than"
	}
	return "at least"
}
