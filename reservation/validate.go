package reservation

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

// ValidBookingDate accepts ISO calendar dates (YYYY-MM-DD).
func ValidBookingDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(dateLayout, fl.Field().String())
	return err == nil
}

// RegisterValidations adds the reservation tags to v.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("bookingdate", ValidBookingDate)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	if err := RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}

func toInputError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &InputError{Reason: err.Error(), Err: err}
	}
	fe := verrs[0]
	return &InputError{Field: fe.Field(), Reason: reasonFor(fe)}
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "bookingdate":
		return "must be a date in YYYY-MM-DD format"
	case "email":
		return "must be a valid email address"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}
