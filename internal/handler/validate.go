package handler

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// msgMissingFields is the catch-all message for an absent required field.
const msgMissingFields = "Missing required fields"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON name so messages can be keyed on the wire
	// format.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// notblank rejects strings that are empty after trimming whitespace.
	v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// fieldMessages maps "<jsonField>.<tag>" to the message shown to the client.
var fieldMessages = map[string]string{
	"username.notblank": "Username is required",
	"username.min":      "Username must be at least 3 characters",
	"username.max":      "Username cannot exceed 50 characters",
	"password.required": "Password is required",
	"password.min":      "Password must be at least 6 characters",
	"password.max":      "Password cannot exceed 100 characters",
	"adminId.required":  "Admin ID is required",
	"adminId.notblank":  "Admin ID is required",
}

var (
	errEmptyBody = errors.New("Request body cannot be null")
	errBadBody   = errors.New("Invalid request body")
)

// decodeAndValidate reads a JSON body into v and runs its validate tags. The
// returned error's text is fit to send to the client: the first failing
// field's message, errEmptyBody, or errBadBody.
func decodeAndValidate(r *http.Request, v interface{}) error {
	if err := readJSON(r, v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return errBadBody
	}
	return validateStruct(v)
}

func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errors.New(msgMissingFields)
	}
	fe := verrs[0]
	if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return errors.New(msg)
	}
	return errors.New(msgMissingFields)
}
