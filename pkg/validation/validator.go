package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/richxcame/rider-client/pkg/models"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Get returns the shared validator with the rider-specific tags registered
func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New()

		// Report json names so messages match what the rider typed into
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		_ = validate.RegisterValidation("ride_status", func(fl validator.FieldLevel) bool {
			return models.RideStatus(fl.Field().String()).Valid()
		})
		_ = validate.RegisterValidation("ride_rating", func(fl validator.FieldLevel) bool {
			v := fl.Field().Int()
			return v == models.RatingNegative || v == models.RatingPositive
		})
		_ = validate.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// Struct validates s and converts failures into a *ValidationError
func Struct(s interface{}) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return NewValidationError(verrs)
	}
	return err
}
