// Package validator wires go-playground/validator into Gin's binding engine
// with English messages keyed by JSON field name.
package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var trans ut.Translator

// Setup registers the custom tags and English translations on Gin's
// binding engine. Call once during application startup.
func Setup() {
	v, ok := binding.Validator.Engine().(*govalidator.Validate)
	if !ok {
		return
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form", "uri"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	_ = v.RegisterValidation("cwid", validateCWID)

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	_ = v.RegisterTranslation("cwid", trans,
		func(ut ut.Translator) error {
			return ut.Add("cwid", "{0} must be a CWID without tabs or whitespace", true)
		},
		func(ut ut.Translator, fe govalidator.FieldError) string {
			t, _ := ut.T("cwid", fe.Field())
			return t
		},
	)
}

// validateCWID accepts any non-empty identifier that could have come from a
// tab-separated record field.
func validateCWID(fl govalidator.FieldLevel) bool {
	s := fl.Field().String()
	return s != "" && !strings.ContainsAny(s, " \t\r\n")
}

// TranslateErrors maps a binding error to field name → message. Errors that
// are not validation errors come back under "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			if trans != nil {
				fields[fe.Field()] = fe.Translate(trans)
			} else {
				fields[fe.Field()] = fe.Error()
			}
		}
		return fields
	}

	fields["detail"] = err.Error()
	return fields
}

// Bind binds and validates the JSON body into dst.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

// BindQuery binds and validates query parameters into dst.
func BindQuery(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindQuery(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

// BindURI binds and validates path parameters into dst.
func BindURI(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindUri(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}
