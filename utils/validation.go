// utils/validation.go
package utils

import (
	"fmt"
	"reflect"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
)

// DefaultPhoneRegion is used for numbers written without a country prefix.
var DefaultPhoneRegion = "ID"

// ValidatePhone reports whether phone parses as a valid number, either in
// international format or local to DefaultPhoneRegion.
func ValidatePhone(phone string) bool {
	p, err := libphonenumber.Parse(phone, DefaultPhoneRegion)
	if err != nil {
		return false
	}
	return libphonenumber.IsValidNumber(p)
}

// NormalizePhone returns the E.164 form of phone ("0812..." becomes "+62812...").
func NormalizePhone(phone string) (string, error) {
	p, err := libphonenumber.Parse(phone, DefaultPhoneRegion)
	if err != nil {
		return "", err
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", fmt.Errorf("phone number %q is not valid", phone)
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

// RegisterValidators teaches gin's validator about decimal.Decimal (so tags
// like gt=0 work on money fields) and adds the "phone" tag.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return ValidatePhone(fl.Field().String())
	})
}
