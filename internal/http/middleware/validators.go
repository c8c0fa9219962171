package middleware

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yungbote/skillsdna-backend/internal/domain/skills"
)

var registerOnce sync.Once

// RegisterValidators adds the mastery_level and bloom_level tags to gin's binding validator.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
			return
		}
		if err = v.RegisterValidation("mastery_level", func(fl validator.FieldLevel) bool {
			_, ok := skills.ParseMasteryLevel(fl.Field().String())
			return ok
		}); err != nil {
			return
		}
		err = v.RegisterValidation("bloom_level", func(fl validator.FieldLevel) bool {
			_, ok := skills.ParseBloomLevel(fl.Field().String())
			return ok
		})
	})
	return err
}
