package httpx

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// DecodeAndValidate decodes a JSON body and runs struct validation. Failures
// are classified as ErrValidation.
func DecodeAndValidate(r *http.Request, target any) error {
	if err := DecodeJSON(r, target); err != nil {
		return Classify(ErrValidation, fmt.Errorf("decode body: %w", err))
	}
	if err := validate.Struct(target); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fieldErr := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s: %s", fieldErr.Field(), fieldErr.Tag()))
			}
			err = fmt.Errorf("%s", strings.Join(msgs, "; "))
		}
		return Classify(ErrValidation, err)
	}
	return nil
}
