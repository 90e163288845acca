package schema

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/aretw0/botflow/pkg/domain"
	"github.com/go-playground/validator/v10"
)

var variableName = regexp.MustCompile(`^[\p{L}\p{N}_]+$`)

// payloadValidator carries the per-kind payload rules. Field names in errors
// use the flow file names (json tags).
var payloadValidator = newPayloadValidator()

func newPayloadValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("varname", func(fl validator.FieldLevel) bool {
		return variableName.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("nospace", func(fl validator.FieldLevel) bool {
		return !strings.ContainsFunc(fl.Field().String(), unicode.IsSpace)
	})

	v.RegisterStructValidationMapRules(map[string]string{
		"Trigger": "required,startswith=/,nospace",
	}, domain.Command{})
	v.RegisterStructValidationMapRules(map[string]string{
		"Text": "required",
	}, domain.Message{})
	v.RegisterStructValidationMapRules(map[string]string{
		"Buttons":        "min=1,dive",
		"SaveToVariable": "omitempty,varname",
	}, domain.Buttons{})
	v.RegisterStructValidationMapRules(map[string]string{
		"Label": "required",
		"Type":  "omitempty,oneof=inline reply",
		"URL":   "omitempty,url",
	}, domain.Button{})
	v.RegisterStructValidationMapRules(map[string]string{
		"Comparison": "oneof=equals contains callback-equals",
		"Value":      "required",
	}, domain.Condition{})
	v.RegisterStructValidationMapRules(map[string]string{
		"Text": "required",
	}, domain.Broadcast{})
	v.RegisterStructValidationMapRules(map[string]string{
		"URL": "required",
	}, domain.Image{})
	v.RegisterStructValidationMapRules(map[string]string{
		"Seconds": "gte=0,lte=3600",
	}, domain.Delay{})
	v.RegisterStructValidationMapRules(map[string]string{
		"URL":    "required",
		"Method": "oneof=GET POST PUT PATCH DELETE HEAD OPTIONS",
	}, domain.APIRequest{})
	v.RegisterStructValidationMapRules(map[string]string{
		"Variable":   "required,varname",
		"Validation": "oneof=none email phone number",
	}, domain.InputWait{})
	return v
}

// validatePayload runs the payload rules and converts failures.
func validatePayload(n domain.Node) []error {
	if n.Payload == nil {
		return []error{&ValidationError{NodeID: n.ID, Reason: "node has no type"}}
	}
	if u, ok := n.Payload.(domain.Unknown); ok {
		return []error{&ValidationError{NodeID: n.ID, Reason: fmt.Sprintf("unknown node type %q", u.Type)}}
	}

	err := payloadValidator.Struct(n.Payload)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []error{&ValidationError{NodeID: n.ID, Reason: err.Error()}}
	}
	out := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, &ValidationError{
			NodeID: n.ID,
			Field:  fieldPath(fe.Namespace()),
			Reason: describe(fe),
		})
	}
	return out
}

// fieldPath drops the struct type prefix: "Buttons.buttons[0].text" -> "buttons[0].text".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "startswith":
		return fmt.Sprintf("must start with %q", fe.Param())
	case "nospace":
		return "must not contain whitespace"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "min":
		return fmt.Sprintf("must have at least %s item(s)", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "varname":
		return "must be a variable name (letters, digits, underscore)"
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}
