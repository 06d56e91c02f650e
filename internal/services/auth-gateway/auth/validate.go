package auth

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	domainauth "github.com/NordCoder/Placement/internal/domain/auth"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("maxbytes", maxBytes); err != nil {
		panic(err)
	}
	return v
}

// maxBytes bounds the encoded length of a string. bcrypt only reads the first 72 bytes.
func maxBytes(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= n
}

var messages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
	"url":      "must be a valid URL",
	"min":      "must be at least %s characters long",
	"max":      "must be no longer than %s characters",
	"gte":      "must be greater than or equal to %s",
	"lte":      "must be less than or equal to %s",
	"gt":       "must be greater than %s",
	"maxbytes": "must be at most %s bytes",
}

func fieldMessage(e validator.FieldError) string {
	msg, ok := messages[e.Tag()]
	if !ok {
		return "is invalid: " + e.Tag()
	}
	if strings.Contains(msg, "%s") {
		// Numeric bounds read better as values than as lengths.
		if (e.Tag() == "min" || e.Tag() == "max") && e.Kind() != reflect.String {
			return fmt.Sprintf("must be %s %s", map[string]string{"min": "at least", "max": "at most"}[e.Tag()], e.Param())
		}
		return fmt.Sprintf(msg, e.Param())
	}
	return msg
}

// validateStruct turns validator failures into a ValidationError keyed by JSON field name.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domainauth.ErrValidation, err)
	}
	fields := make(map[string]string, len(verrs))
	for _, e := range verrs {
		fields[e.Field()] = fieldMessage(e)
	}
	return &domainauth.ValidationError{Fields: fields}
}
