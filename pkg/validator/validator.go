package validator

import "github.com/go-playground/validator/v10"

// ErrorResponse describes one failed validation rule in a form safe to
// return to API clients.
type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var validate = validator.New()

// ValidateStruct runs the struct's `validate` tags and returns one entry
// per failed rule, or nil when the struct is valid.
func ValidateStruct(data interface{}) []*ErrorResponse {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	var errors []*ErrorResponse
	for _, fieldErr := range err.(validator.ValidationErrors) {
		errors = append(errors, &ErrorResponse{
			FailedField: fieldErr.StructNamespace(),
			Tag:         fieldErr.Tag(),
			Value:       fieldErr.Param(),
		})
	}
	return errors
}
