package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// FieldError describes the first field of a config struct failing validation.
type FieldError struct {
	// Dotted path of the field, named after its mapstructure tags, e.g. "reports.directory".
	Field string
	Tag   string
	Param string
	Value interface{}
}

func (err *FieldError) Error() string {
	switch err.Tag {
	case "required", "required_if":
		return fmt.Sprintf("field %s is required but was not found", err.Field)
	}
	constraint := err.Tag
	if err.Param != "" {
		constraint += "=" + err.Param
	}
	return fmt.Sprintf("field %s has invalid value %v: %s", err.Field, err.Value, constraint)
}

// Validate checks c against its validate tags, returning a *FieldError for the first violation.
func Validate(c interface{}) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(mapstructureName)
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return errors.WithStack(err)
	}
	fe := validationErrors[0]
	return errors.WithStack(&FieldError{
		Field: stripPrefix(fe.Namespace()),
		Tag:   fe.Tag(),
		Param: fe.Param(),
		Value: fe.Value(),
	})
}

func mapstructureName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	return name
}

func stripPrefix(s string) string {
	if idx := strings.Index(s, "."); idx != -1 {
		return s[idx+1:]
	}
	return s
}
