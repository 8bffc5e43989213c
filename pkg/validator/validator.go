// Package validator wraps go-playground/validator with the portal's pattern rules.
package validator

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	phonePattern          = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	postalCodePattern     = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 \-]{1,8}[A-Za-z0-9]$`)
	nationalIDPattern     = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9\-]{3,18}[A-Za-z0-9]$`)
	passportNumberPattern = regexp.MustCompile(`^[A-Za-z0-9]{6,9}$`)
	cardNumberPattern     = regexp.MustCompile(`^[0-9]{16}$`)
	cardExpiryPattern     = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
	cvvPattern            = regexp.MustCompile(`^[0-9]{3,4}$`)

	phoneNoise = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

type Validator struct {
	validate *validator.Validate
	policy   *bluemonday.Policy
}

func New() *Validator {
	v := &Validator{
		validate: validator.New(),
		policy:   bluemonday.StrictPolicy(),
	}
	v.registerCustomValidations()
	return v
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var errMessages []string
			for _, e := range validationErrors {
				errMessages = append(errMessages, fmt.Sprintf(
					"Field '%s' failed validation '%s'",
					e.Field(),
					e.Tag(),
				))
			}
			return fmt.Errorf("validation failed: %v", errMessages)
		}
		return err
	}
	return nil
}

// ValidateStructured returns a map of field -> error message for API clients.
func (v *Validator) ValidateStructured(i interface{}) map[string]string {
	errs := make(map[string]string)
	if err := v.validate.Struct(i); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, e := range validationErrors {
				msg := fmt.Sprintf("failed validation on '%s'", e.Tag())
				switch e.Tag() {
				case "required":
					msg = "This field is required"
				case "max":
					msg = fmt.Sprintf("Must be at most %s characters", e.Param())
				case "oneof":
					msg = fmt.Sprintf("Must be one of: %s", e.Param())
				}
				errs[e.Field()] = msg
			}
		} else {
			errs["_global"] = err.Error()
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Matches reports whether value satisfies the validator tag expression, e.g. "email"
// or "portal_phone".
func (v *Validator) Matches(value, tag string) bool {
	return v.validate.Var(value, tag) == nil
}

// Sanitize strips markup and surrounding whitespace from free text. Entities escaped by
// the policy are decoded again so names such as O'Brien survive intact.
func (v *Validator) Sanitize(input string) string {
	return strings.TrimSpace(html.UnescapeString(v.policy.Sanitize(input)))
}

func (v *Validator) registerCustomValidations() {
	patterns := map[string]func(string) bool{
		"portal_phone": func(s string) bool {
			return phonePattern.MatchString(phoneNoise.Replace(s))
		},
		"postal_code":     postalCodePattern.MatchString,
		"national_id":     nationalIDPattern.MatchString,
		"passport_number": passportNumberPattern.MatchString,
		"card_number": func(s string) bool {
			return cardNumberPattern.MatchString(strings.ReplaceAll(s, " ", ""))
		},
		"card_expiry": cardExpiryPattern.MatchString,
		"cvv":         cvvPattern.MatchString,
	}

	for tag, match := range patterns {
		match := match
		_ = v.validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return match(strings.TrimSpace(fl.Field().String()))
		})
	}
}
