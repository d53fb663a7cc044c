package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/helpdeskhq/helpdesk/pkg/util/errorutil"
)

const formErrorMessage = "Please fix the errors below"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON name so keys match form inputs.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldMessages maps field name and failed rule to a user-facing message.
type fieldMessages map[string]map[string]string

// validateInput checks every field and returns a VALIDATION_FAILED error holding
// one message per failing field, or nil.
func validateInput(input any, messages fieldMessages) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errorutil.NewInternalError(err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		msg := messages[fe.Field()][fe.Tag()]
		if msg == "" {
			msg = "Invalid value"
		}
		fields[fe.Field()] = msg
	}
	return errorutil.NewValidationError(formErrorMessage, fields)
}

var (
	emailMessages = map[string]string{
		"required": "Email is required",
		"email":    "Invalid email format",
	}

	signupMessages = fieldMessages{
		"name": {
			"required": "Name is required",
			"min":      "Name must be at least 2 characters",
		},
		"email": emailMessages,
		"password": {
			"required": "Password is required",
			"min":      "Password must be at least 6 characters",
		},
		"confirmPassword": {
			"required": "Please confirm your password",
			"eqfield":  "Passwords do not match",
		},
	}

	loginMessages = fieldMessages{
		"email": emailMessages,
		"password": {
			"required": "Password is required",
		},
	}

	statusMessage = "Status must be one of: open, in_progress, closed."

	ticketMessages = fieldMessages{
		"title": {
			"required": "Title is required.",
		},
		"status": {
			"required": statusMessage,
			"oneof":    statusMessage,
		},
		"description": {
			"max": "Description must be less than 500 characters.",
		},
	}
)
