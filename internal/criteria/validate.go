package criteria

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError 검증 실패 (실행 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validate = validator.New()

// Validate checks field constraints and returns the first violation
func Validate(cfg *Config) error {
	if cfg == nil {
		return ValidationError{"criteria", "required"}
	}

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return toValidationError(verrs[0])
		}
		return err
	}

	return nil
}

// toValidationError converts "Config.Screening.MaxPayout" into "screening.max_payout"
func toValidationError(fe validator.FieldError) ValidationError {
	ns := fe.StructNamespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}

	parts := strings.Split(ns, ".")
	for i, p := range parts {
		parts[i] = snakeCase(p)
	}

	msg := fe.Tag()
	if fe.Param() != "" {
		msg = fmt.Sprintf("must be %s %s", tagWords[fe.Tag()], fe.Param())
	}

	return ValidationError{Field: strings.Join(parts, "."), Message: msg}
}

var tagWords = map[string]string{
	"gt":  ">",
	"gte": ">=",
	"lt":  "<",
	"lte": "<=",
}

func snakeCase(s string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range s {
		upper := r >= 'A' && r <= 'Z'
		if upper {
			if prevLower {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		prevLower = !upper
		b.WriteRune(r)
	}
	return b.String()
}
