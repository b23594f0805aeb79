package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/wonny/quotecatalog/internal/api/response"
	"github.com/wonny/quotecatalog/internal/domain/catalog"
)

// bindJSON decodes and validates the request body into dst.
// On failure the error response is already written.
func bindJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := binding.JSON.Bind(r, dst)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]response.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, response.FieldError{
				Field:   snakeCase(fe.Field()),
				Message: ruleMessage(fe),
			})
		}
		response.ValidationError(w, r, fields)
		return false
	}

	response.BadRequest(w, r, "Invalid request body")
	return false
}

// domainInvalid writes a validation response for catalog validation errors
func domainInvalid(w http.ResponseWriter, r *http.Request, err error) {
	field := "value"
	switch {
	case errors.Is(err, catalog.ErrInvalidName):
		field = "name"
	case errors.Is(err, catalog.ErrInvalidFullName):
		field = "full_name"
	case errors.Is(err, catalog.ErrInvalidDescription):
		field = "description"
	case errors.Is(err, catalog.ErrInvalidTimestamp):
		field = "timestamp"
	case errors.Is(err, catalog.ErrInvalidPrice):
		field = "price"
	}
	response.ValidationError(w, r, []response.FieldError{{Field: field, Message: err.Error()}})
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	}
	return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
}

// snakeCase converts a Go field name like FullName into full_name
func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
