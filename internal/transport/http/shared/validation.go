package shared

import (
	"errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validation wraps a validator instance with English translations so
// handlers can surface a single readable message per bad payload.
type Validation struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewValidation() (*Validation, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	english := en.New()
	uni := ut.New(english, english)
	translator, found := uni.GetTranslator("en")
	if !found {
		return nil, errors.New("english translator not registered")
	}
	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		return nil, err
	}
	return &Validation{validate: validate, translator: translator}, nil
}

// Struct validates v and returns a translated error for the first
// failing field, or nil.
func (v *Validation) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return errors.New(validationErrors[0].Translate(v.translator))
	}
	return err
}
