package middleware

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stitchline/backend/internal/domain/review"
)

// SetupValidator configures gin's binding engine with the custom rules
// the review handlers rely on. Call once at startup, before the first
// request is bound.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// Report field names from json/form tags so binding errors match
	// the wire format
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	// reviewstatus accepts the admin-facing status vocabulary,
	// including the "approved" alias the state machine remaps
	_ = v.RegisterValidation("reviewstatus", func(fl validator.FieldLevel) bool {
		_, _, err := review.ResolveReviewStatus(review.ReviewStatus(fl.Field().String()))
		return err == nil
	})
}
