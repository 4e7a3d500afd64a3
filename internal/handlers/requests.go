package handlers

import (
	"github.com/go-playground/validator/v10"
)

// Validator checks bound forms against their validate tags.
type Validator struct {
	v *validator.Validate
}

// NewValidator returns the echo.Validator the server installs.
func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (fv *Validator) Validate(form any) error {
	return fv.v.Struct(form)
}

// SignupRequest is the signup form.
type SignupRequest struct {
	Name     string `form:"name" validate:"required,max=100"`
	Email    string `form:"email" validate:"required,email,max=254"`
	Subjects string `form:"subjects" validate:"max=1000"`
}

// LoginRequest is the login form.
type LoginRequest struct {
	Email string `form:"email" validate:"required,email"`
}
