package interpolation

import (
	"errors"
	"fmt"
	"reflect"
)

// Tag marks the fields InterpolateStruct expands: `env_interpolation:"yes"`.
const Tag = "env_interpolation"

// InterpolateStruct expands tagged string fields of the struct v points to,
// descending into tagged nested structs. Errors name the offending field.
func InterpolateStruct(v any) error {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Pointer || val.IsNil() || val.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("expected pointer to struct, got %T", v)
	}
	return interpolate(val.Elem(), "")
}

func interpolate(val reflect.Value, prefix string) error {
	typ := val.Type()
	var errs []error
	for i := range val.NumField() {
		field := val.Field(i)
		info := typ.Field(i)
		if !field.CanSet() || info.Tag.Get(Tag) != "yes" {
			continue
		}
		name := prefix + info.Name

		switch field.Kind() {
		case reflect.String:
			expanded, err := ExpandEnvVars(field.String())
			if err != nil {
				errs = append(errs, fmt.Errorf("field %s: %w", name, err))
				continue
			}
			field.SetString(expanded)
		case reflect.Struct:
			if err := interpolate(field, name+"."); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
