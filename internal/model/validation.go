package model

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that knows the complaint enumerations and
// reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
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
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		c := Category(fl.Field().String())
		for _, known := range Categories {
			if c == known {
				return true
			}
		}
		return false
	})
	_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		p := Priority(fl.Field().String())
		for _, known := range Priorities {
			if p == known {
				return true
			}
		}
		return false
	})
	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		return ComplaintStatus(fl.Field().String()).Valid()
	})
	return v
}
