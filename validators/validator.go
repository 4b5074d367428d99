package validators

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/anonto42/regional-voices/backend/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	handlePattern = regexp.MustCompile(`^[\p{L}\p{M}\p{N}_.@+-]+$`)
	numericOnly   = regexp.MustCompile(`^[0-9]+$`)
	teluguPattern = regexp.MustCompile(`^[\x{0C00}-\x{0C7F}\s\d.,!?-]+$`)
)

// TeluguMessage is shown when text falls outside the Telugu script rule
const TeluguMessage = "దయచేసి తెలుగులో మాత్రమే వ్రాయండి. (Please write in Telugu only.)"

// CustomValidator wraps go-playground/validator and satisfies echo.Validator
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator builds a validator that reports form field names and knows the portal's custom tags:
//   - handle: letters and digits in any script plus @/./+/-/_
//   - notnumeric: rejects entirely numeric values
//   - category: one of the contribution categories
//   - telugu: Telugu script, whitespace, digits and basic punctuation
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
		return handlePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("notnumeric", func(fl validator.FieldLevel) bool {
		return !numericOnly.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseCategory(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("telugu", func(fl validator.FieldLevel) bool {
		return IsTelugu(fl.Field().String())
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// Var validates a single value against a tag expression
func (cv *CustomValidator) Var(field interface{}, tag string) error {
	return cv.validator.Var(field, tag)
}

// IsTelugu reports whether s is written in the Telugu script
func IsTelugu(s string) bool {
	return teluguPattern.MatchString(s)
}

// ToFields converts validation errors into a map[field]message for re-rendered forms
func ToFields(err error) map[string]string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"__all__": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = Message(fe)
	}
	return out
}

// Message renders one field error the way the forms display it
func Message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return "Ensure this value has at most " + fe.Param() + " characters."
	case "min":
		return "This password is too short. It must contain at least " + fe.Param() + " characters."
	case "eqfield":
		return "The two password fields didn't match."
	case "handle":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	case "notnumeric":
		return "This password is entirely numeric."
	case "category":
		return "Select a valid choice."
	case "telugu":
		return TeluguMessage
	default:
		return "Invalid value."
	}
}
