package validator

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/bimuz/bimuz-backend/internal/model"
)

// trans is the singleton English translator for validation errors.
var trans ut.Translator

// phonePattern accepts an optional "+" and "1" prefix followed by 9 to 15 digits.
var phonePattern = regexp.MustCompile(`^\+?1?\d{9,15}$`)

// customRules are the domain validators registered next to the built-ins.
var customRules = []struct {
	tag     string
	fn      govalidator.Func
	message string
}{
	{"phone", validatePhone, "{0} must be a phone number of 9 to 15 digits, optionally starting with +"},
	{"month", validateMonth, "{0} must use the YYYY-MM format"},
	{"role", validateRole, "{0} must be a known employee role"},
	{"speciality", validateSpeciality, "{0} must be a known speciality"},
}

// Setup registers the validator with English translations on Gin's binding engine.
// Call once during application startup.
func Setup() {
	if v, ok := binding.Validator.Engine().(*govalidator.Validate); ok {
		register(v)
	}
}

// New returns a standalone validator configured like Gin's. Used by CLI tools.
func New() *govalidator.Validate {
	v := govalidator.New()
	register(v)
	return v
}

func register(v *govalidator.Validate) {
	// Use JSON tag name for field names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	for _, rule := range customRules {
		_ = v.RegisterValidation(rule.tag, rule.fn)
		message := rule.message
		tag := rule.tag
		_ = v.RegisterTranslation(tag, trans,
			func(ut ut.Translator) error { return ut.Add(tag, message, true) },
			func(ut ut.Translator, fe govalidator.FieldError) string {
				t, _ := ut.T(tag, fe.Field())
				return t
			},
		)
	}
}

// ValidPhone reports whether s is an accepted phone number.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

func validatePhone(fl govalidator.FieldLevel) bool {
	return ValidPhone(fl.Field().String())
}

func validateMonth(fl govalidator.FieldLevel) bool {
	_, err := model.ParseMonth(fl.Field().String())
	return err == nil
}

func validateRole(fl govalidator.FieldLevel) bool {
	return model.Role(fl.Field().String()).Valid()
}

func validateSpeciality(fl govalidator.FieldLevel) bool {
	return model.Speciality(fl.Field().String()).Valid()
}

// TranslateErrors takes a binding/validation error and returns a map of
// field name to human-readable error message. If the error is not a
// validation error, it returns a single-key map with "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(trans)
		}
		return fields
	}

	// Not a validation error (e.g., JSON syntax error).
	fields["detail"] = err.Error()
	return fields
}

// Bind binds and validates the request body into dst.
// Returns nil on success or a translated field error map on failure.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

// BindOptional is Bind for endpoints whose body may be omitted entirely.
// An empty body validates the zero value of dst.
func BindOptional(c *gin.Context, dst interface{}) map[string]string {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		if err := binding.Validator.ValidateStruct(dst); err != nil {
			return TranslateErrors(err)
		}
		return nil
	}
	return Bind(c, dst)
}
