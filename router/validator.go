package router

import (
	"fmt"
	"strings"

	"gopkg.in/go-playground/validator.v9"
)

// NewValidator func
func NewValidator() *Validator {
	return &Validator{
		validator: validator.New(),
	}
}

// Validator struct
type Validator struct {
	validator *validator.Validate
}

// Validate checks the struct tags of i and folds field errors into one message
func (v *Validator) Validate(i interface{}) error {
	err := v.validator.Struct(i)
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", strings.ToLower(fe.Field()), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid input: %s", strings.Join(msgs, ", "))
}
