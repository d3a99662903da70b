package handlers

import (
	"facematch/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the profile enum check used by binding tags
// like `profile_enum=looking_for`.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("profile_enum", func(fl validator.FieldLevel) bool {
			return models.ValidEnumValue(fl.Param(), fl.Field().String())
		})
	}
}
