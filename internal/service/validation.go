package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/booktrack/booktrack-go/internal/apperr"
	"github.com/booktrack/booktrack-go/internal/model"
)

// MsgValidationFailed is the top-level message of every validation error.
const MsgValidationFailed = "Validation failed"

// MsgInvalidStatus lists the accepted book statuses.
var MsgInvalidStatus = statusMessage()

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// fieldMessages maps "<StructField>.<tag>" to the client-facing message.
var fieldMessages = map[string]string{
	"Name.required":     "Name is required",
	"Name.max":          "Name must be less than 50 characters",
	"Email.required":    "Email is required",
	"Email.email":       "Please provide a valid email",
	"Password.required": "Password is required",
	"Password.min":      "Password must be at least 6 characters",
	"Title.required":    "Title is required",
	"Title.max":         "Title must be less than 200 characters",
	"Author.required":   "Author is required",
	"Author.max":        "Author must be less than 100 characters",
	"Tags.max":          "Tags must be less than 100 characters",
	"Status.required":   MsgInvalidStatus,
	"Status.bookstatus": MsgInvalidStatus,
	"Notes.max":         "Notes must be less than 1000 characters",
}

func statusMessage() string {
	names := make([]string, len(model.Statuses))
	for i, s := range model.Statuses {
		names[i] = string(s)
	}
	return "Status must be one of: " + strings.Join(names, ", ")
}

// getValidator returns the shared validator with the book status rule registered.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		_ = validate.RegisterValidation("bookstatus", func(fl validator.FieldLevel) bool {
			return model.BookStatus(fl.Field().String()).Valid()
		})
	})
	return validate
}

// validateStruct runs struct validation and translates failures into a
// Validation error carrying one message per failed rule.
func validateStruct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal(fmt.Errorf("validating request: %w", err))
	}

	fields := make([]string, 0, len(verrs))
	seen := make(map[string]struct{}, len(verrs))
	for _, fe := range verrs {
		msg := translate(fe)
		if _, dup := seen[msg]; dup {
			continue
		}
		seen[msg] = struct{}{}
		fields = append(fields, msg)
	}

	return apperr.Validation(MsgValidationFailed, fields...)
}

func translate(fe validator.FieldError) string {
	name := fe.StructField()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}

	if msg, ok := fieldMessages[name+"."+fe.Tag()]; ok {
		return msg
	}
	return fmt.Sprintf("%s is invalid", name)
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
