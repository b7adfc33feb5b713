package controllers

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/tobaccostore/backend/services/storefront-service/models"
)

var registerOnce sync.Once

// RegisterValidators adds the courier and payment_method binding tags to
// gin's validator. It is safe to call more than once.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		if err = v.RegisterValidation("courier", func(fl validator.FieldLevel) bool {
			return models.ValidCourier(fl.Field().String())
		}); err != nil {
			return
		}
		err = v.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
			return models.PaymentMethod(fl.Field().String()).Valid()
		})
	})
	return err
}
