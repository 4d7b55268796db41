// Package validate checks struct-tagged payloads and config with
// go-playground/validator and renders failures as English sentences.
package validate

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	once   sync.Once
	engine *govalidator.Validate
	trans  ut.Translator
)

// setup builds the shared validator with English translations.
func setup() {
	engine = govalidator.New(govalidator.WithRequiredStructEnabled())

	// Report fields by their wire name.
	engine.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "mapstructure"} {
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

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(engine, trans)
}

// Error carries per-field messages for a failed validation.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, "; ")
}

// Struct validates s against its `validate` tags. It returns nil or *Error.
func Struct(s any) error {
	once.Do(setup)
	if err := engine.Struct(s); err != nil {
		return &Error{Fields: Translate(err)}
	}
	return nil
}

// Translate maps a validation error to field name → message. Errors that
// are not validation errors come back under "detail".
func Translate(err error) map[string]string {
	once.Do(setup)
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(trans)
		}
		return fields
	}

	fields["detail"] = err.Error()
	return fields
}
