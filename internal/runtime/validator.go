package runtime

import (
	"regexp"
	"strings"

	"github.com/aretw0/botflow/pkg/domain"
	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()\-]{5,19}$`)

// newReplyValidator builds the validator used for InputWait replies.
func newReplyValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// validateReply reports whether reply satisfies the rule of an InputWait node.
// Unknown rules accept everything.
func validateReply(v *validator.Validate, rule domain.Validation, reply string) bool {
	reply = strings.TrimSpace(reply)
	var tag string
	switch rule {
	case domain.ValidateEmail:
		tag = "required,email"
	case domain.ValidatePhone:
		tag = "required,phone"
	case domain.ValidateNumber:
		tag = "required,numeric"
	default:
		return true
	}
	return v.Var(reply, tag) == nil
}
