package model

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs the domain enum checks referenced by the
// request binding tags. Call once at startup, before routes are served.
func RegisterValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterValidation("occasion", func(fl validator.FieldLevel) bool {
		return OccasionType(fl.Field().String()).Valid()
	})
	v.RegisterValidation("segment", func(fl validator.FieldLevel) bool {
		return ContactSegment(fl.Field().String()).Valid()
	})
	v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		return Language(fl.Field().String()).Valid()
	})
	v.RegisterValidation("schedule_type", func(fl validator.FieldLevel) bool {
		return ScheduleType(fl.Field().String()).Valid()
	})
}
