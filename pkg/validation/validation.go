package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ainetwork-ai/google-sheet-mcp/pkg/a1"
	"github.com/ainetwork-ai/google-sheet-mcp/pkg/pagination"
)

var v *validator.Validate

// Validator returns a singleton validator with custom rules registered.
func Validator() *validator.Validate {
	if v == nil {
		v = validator.New()
		// Custom: single A1 cell address, e.g. "B7"
		_ = v.RegisterValidation("a1cell", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" {
				return false
			}
			_, _, err := a1.ParseCell(s)
			return err == nil
		})
		// Custom: A1 range, e.g. "A1:D50"
		_ = v.RegisterValidation("a1range", func(fl validator.FieldLevel) bool {
			return a1.ValidRange(strings.TrimSpace(fl.Field().String()))
		})
		// Custom: column letter, e.g. "B" or "AA"
		_ = v.RegisterValidation("column", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" {
				return false
			}
			_, err := a1.ColumnNumber(strings.ToUpper(s))
			return err == nil
		})
		// Custom: cursor must be decodable; empty is allowed with omitempty
		_ = v.RegisterValidation("cursor", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" {
				return true
			}
			_, err := pagination.Decode(s)
			return err == nil
		})
	}
	return v
}

// ValidateStruct validates a struct and returns a user-friendly error string
// suitable for MCP tool errors. Returns empty string when valid.
func ValidateStruct(s any) string {
	if err := Validator().Struct(s); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			fe := ve[0]
			field := strings.ToLower(fe.Field())
			switch fe.Tag() {
			case "required":
				return fmt.Sprintf("VALIDATION: %s is required", field)
			case "a1cell":
				return fmt.Sprintf("VALIDATION: %s must be an A1 cell address like B7", field)
			case "a1range":
				return fmt.Sprintf("VALIDATION: %s must be an A1 range like A1:D50", field)
			case "column":
				return fmt.Sprintf("VALIDATION: %s must be a column letter like B or AA", field)
			case "cursor":
				return "CURSOR_INVALID: failed to decode cursor; restart pagination from the first page"
			case "min", "max", "gte", "lte":
				return fmt.Sprintf("VALIDATION: %s must satisfy %s=%s", field, fe.Tag(), fe.Param())
			}
			return fmt.Sprintf("VALIDATION: invalid %s", field)
		}
		return "VALIDATION: invalid inputs"
	}
	return ""
}
