// Package validation sanitises request payloads and validates them against
// struct tags. Sanitisation runs first and is a fixed blacklist of substitution
// rules; validation uses go-playground/validator with a few Brazilian-specific
// tags (cpf, phone_br, cep).
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"storefront/internal/model"

	"github.com/go-playground/validator/v10"
)

var (
	slugPattern         = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	cepPattern          = regexp.MustCompile(`^\d{5}-?\d{3}$`)
	trackingCodePattern = regexp.MustCompile(`^[A-Z]{2}\d{9}[A-Z]{2}$`)
)

// Validator validates structs using `validate` tags.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the custom storefront tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, "cpf", validateCPF)
	mustRegister(v, "phone_br", validatePhone)
	mustRegister(v, "cep", validateCEP)
	mustRegister(v, "slug", validateSlug)
	mustRegister(v, "strong_password", validateStrongPassword)
	mustRegister(v, "tracking_code", validateTrackingCode)

	return &Validator{validate: v}
}

// mustRegister adds a custom tag and panics if the validator refuses it.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

// Validate checks s and returns a *model.ValidationError describing every failing field.
func (v *Validator) Validate(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("failed to validate: %w", err)
	}

	fields := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		fields[fieldPath(fe.Namespace())] = message(fe)
	}

	return &model.ValidationError{Fields: fields}
}

// Var validates a single value against a tag expression.
func (v *Validator) Var(field string, value any, tag string) error {
	if err := v.validate.Var(value, tag); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			return model.NewValidationError(field, message(validationErrors[0]))
		}
		return fmt.Errorf("failed to validate %s: %w", field, err)
	}
	return nil
}

// fieldPath strips the top-level struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map {
			return fmt.Sprintf("must contain at least %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map {
			return fmt.Sprintf("must contain at most %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "gtfield":
		return fmt.Sprintf("must be greater than %s", strings.ToLower(fe.Param()))
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "alpha":
		return "must contain only letters"
	case "hexadecimal":
		return "must be hexadecimal"
	case "cpf":
		return "must be a valid CPF"
	case "phone_br":
		return "must be a valid phone number with area code"
	case "cep":
		return "must be a valid CEP (00000-000)"
	case "slug":
		return "must contain only lowercase letters, digits and hyphens"
	case "strong_password":
		return "must be at least 8 characters and contain a letter and a digit"
	case "tracking_code":
		return "must be a valid tracking code (AA123456789BR)"
	default:
		return "is invalid"
	}
}

// OnlyDigits returns s with every non-digit removed.
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidCPF reports whether cpf (formatted or not) has valid check digits.
func ValidCPF(cpf string) bool {
	if strings.Trim(cpf, "0123456789.- ") != "" {
		return false
	}

	digits := OnlyDigits(cpf)
	if len(digits) != 11 {
		return false
	}

	// Repeated digits pass the checksum but are never issued.
	if strings.Count(digits, digits[:1]) == 11 {
		return false
	}

	d := make([]int, 11)
	for i, r := range digits {
		d[i] = int(r - '0')
	}

	return checkDigit(d[:9], 10) == d[9] && checkDigit(d[:10], 11) == d[10]
}

func checkDigit(digits []int, weight int) int {
	sum := 0
	for i, d := range digits {
		sum += d * (weight - i)
	}
	r := (sum * 10) % 11
	if r == 10 {
		return 0
	}
	return r
}

// NormalizePhone returns the national digits of a Brazilian phone number,
// dropping a leading +55 country code.
func NormalizePhone(phone string) string {
	digits := OnlyDigits(phone)
	if (len(digits) == 12 || len(digits) == 13) && strings.HasPrefix(digits, "55") {
		digits = digits[2:]
	}
	return digits
}

func validateCPF(fl validator.FieldLevel) bool {
	return ValidCPF(fl.Field().String())
}

func validatePhone(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if strings.Trim(raw, "0123456789+()- ") != "" {
		return false
	}
	n := len(NormalizePhone(raw))
	return n == 10 || n == 11
}

func validateCEP(fl validator.FieldLevel) bool {
	return cepPattern.MatchString(fl.Field().String())
}

func validateSlug(fl validator.FieldLevel) bool {
	return ValidSlug(fl.Field().String())
}

// ValidSlug reports whether s is a lower-case, hyphen-separated slug.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

func validateTrackingCode(fl validator.FieldLevel) bool {
	return ValidTrackingCode(fl.Field().String())
}

// ValidTrackingCode reports whether code looks like a postal tracking code (AA123456789BR).
func ValidTrackingCode(code string) bool {
	return trackingCodePattern.MatchString(code)
}

func validateStrongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len(password) < 8 {
		return false
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

// Slugify derives a URL slug from a display name.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(foldAccents(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

var accentReplacer = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a", "ä", "a",
	"Á", "a", "À", "a", "Â", "a", "Ã", "a", "Ä", "a",
	"é", "e", "ê", "e", "è", "e", "É", "e", "Ê", "e",
	"í", "i", "î", "i", "Í", "i",
	"ó", "o", "ô", "o", "õ", "o", "ö", "o", "Ó", "o", "Ô", "o", "Õ", "o",
	"ú", "u", "ü", "u", "Ú", "u", "Ü", "u",
	"ç", "c", "Ç", "c", "ñ", "n", "Ñ", "n",
)

func foldAccents(s string) string {
	return accentReplacer.Replace(s)
}
