package utils

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var hhmmRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// IsValidHHMM reports whether s is a 24h "HH:MM" time of day.
func IsValidHHMM(s string) bool {
	return hhmmRegex.MatchString(s)
}

// StructValidation pairs a struct-level rule with the request type it guards.
type StructValidation struct {
	Fn    validator.StructLevelFunc
	Types []interface{}
}

// RegisterValidations hooks custom rules into gin's validator engine.
func RegisterValidations(structRules ...StructValidation) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return IsValidHHMM(fl.Field().String())
	}); err != nil {
		return err
	}
	for _, rule := range structRules {
		v.RegisterStructValidation(rule.Fn, rule.Types...)
	}
	return nil
}
