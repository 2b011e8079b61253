package handlers

import (
	"errors"
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	mobileRe       = regexp.MustCompile(`^\d{10}$`)
	registerOnce   sync.Once
	registerErr    error
)

// RegisterValidators installs the custom binding rules used by request structs.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		registerErr = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
			return mobileRe.MatchString(fl.Field().String())
		})
	})
	return registerErr
}

// bindMessage turns validator errors into a short client-facing message.
func bindMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request body"
	}
	fe := verrs[0]
	field := jsonFieldName(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "invalid email address"
	case "min":
		return field + " must be at least " + fe.Param() + " characters"
	case "mobile":
		return "mobile must be exactly 10 digits"
	case "gte", "lte":
		return field + " is out of range"
	default:
		return field + " is invalid"
	}
}

var fieldNames = map[string]string{
	"Name":         "name",
	"Email":        "email",
	"Password":     "password",
	"Mobile":       "mobile",
	"Title":        "title",
	"Description":  "description",
	"Latitude":     "latitude",
	"Longitude":    "longitude",
	"RefreshToken": "refresh_token",
}

func jsonFieldName(f string) string {
	if n, ok := fieldNames[f]; ok {
		return n
	}
	return f
}
