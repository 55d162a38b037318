package feeders

import (
	"encoding"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/golobby/cast"
)

// EnvFeeder is a feeder that reads environment variables into struct fields
// tagged with `env`. Variable names are PREFIX_TAG, upper-cased; nested
// structs are walked recursively. Unset variables leave fields untouched.
type EnvFeeder struct {
	Prefix string
}

// NewEnvFeeder creates a new EnvFeeder with the given variable name prefix.
func NewEnvFeeder(prefix string) EnvFeeder {
	return EnvFeeder{Prefix: prefix}
}

// Feed populates target from the environment.
func (e EnvFeeder) Feed(target interface{}) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrTargetNotPointer
	}
	return e.processStructFields(rv.Elem())
}

func (e EnvFeeder) processStructFields(rv reflect.Value) error {
	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		fieldType := rv.Type().Field(i)

		if err := e.processField(field, &fieldType); err != nil {
			return fmt.Errorf("error in field '%s': %w", fieldType.Name, err)
		}
	}
	return nil
}

// processField handles a single struct field
func (e EnvFeeder) processField(field reflect.Value, fieldType *reflect.StructField) error {
	// Tagged fields are fed directly, even struct-typed ones that
	// implement TextUnmarshaler.
	if envTag, exists := fieldType.Tag.Lookup("env"); exists {
		return e.setFieldFromEnv(field, envTag)
	}

	// Untagged nested structs are walked recursively.
	switch field.Kind() {
	case reflect.Struct:
		return e.processStructFields(field)
	case reflect.Pointer:
		if !field.IsZero() && field.Elem().Kind() == reflect.Struct {
			return e.processStructFields(field.Elem())
		}
	}
	return nil
}

// setFieldFromEnv sets a field value from an environment variable
func (e EnvFeeder) setFieldFromEnv(field reflect.Value, envTag string) error {
	envName := strings.ToUpper(envTag)
	if e.Prefix != "" {
		envName = strings.ToUpper(e.Prefix) + "_" + envName
	}

	envValue := os.Getenv(envName)
	if envValue == "" {
		return nil
	}
	return setFieldValue(field, envValue)
}

// setFieldValue converts and sets a field value
func setFieldValue(field reflect.Value, strValue string) error {
	if !field.CanSet() {
		return ErrFieldNotSettable
	}

	// Types that know how to parse themselves take priority.
	if field.CanAddr() {
		if unmarshaler, ok := field.Addr().Interface().(encoding.TextUnmarshaler); ok {
			if err := unmarshaler.UnmarshalText([]byte(strValue)); err != nil {
				return fmt.Errorf("cannot parse value into %v: %w", field.Type(), err)
			}
			return nil
		}
	}

	// String slices come as comma-separated lists.
	if field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.String {
		parts := strings.Split(strValue, ",")
		values := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				values = append(values, trimmed)
			}
		}
		field.Set(reflect.ValueOf(values).Convert(field.Type()))
		return nil
	}

	convertedValue, err := cast.FromType(strValue, field.Type())
	if err != nil {
		return fmt.Errorf("cannot convert value to type %v: %w", field.Type(), err)
	}

	field.Set(reflect.ValueOf(convertedValue))
	return nil
}
