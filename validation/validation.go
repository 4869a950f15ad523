// Package validation applies the field rules for films and users using
// go-playground/validator struct tags declared on the model types.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/kasuganosora/filmorate/apperr"
	"github.com/kasuganosora/filmorate/model"
)

// Validator checks films and users. It is safe for concurrent use.
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

// New builds a Validator with the catalogue's custom tags registered.
func New() *Validator {
	return NewWithClock(time.Now)
}

// NewWithClock is New with an injectable clock for the birthday rule.
func NewWithClock(now func() time.Time) *Validator {
	val := &Validator{v: validator.New(validator.WithRequiredStructEnabled()), now: now}
	val.v.RegisterTagNameFunc(jsonName)
	// Dates validate as time.Time so field tags run instead of diving into the struct.
	val.v.RegisterCustomTypeFunc(func(v reflect.Value) any {
		return v.Interface().(model.Date).Time
	}, model.Date{})
	mustRegister(val.v, "notblank", notBlank)
	mustRegister(val.v, "nowhitespace", noWhitespace)
	mustRegister(val.v, "releasedate", releaseDate)
	mustRegister(val.v, "birthday", val.birthday)
	return val
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func noWhitespace(fl validator.FieldLevel) bool {
	return !strings.ContainsFunc(fl.Field().String(), unicode.IsSpace)
}

func dateOf(fl validator.FieldLevel) (time.Time, bool) {
	switch d := fl.Field().Interface().(type) {
	case time.Time:
		return d, true
	case model.Date:
		return d.Time, true
	}
	return time.Time{}, false
}

func releaseDate(fl validator.FieldLevel) bool {
	d, ok := dateOf(fl)
	return ok && !d.IsZero() && !d.Before(model.FirstFilmRelease.Time)
}

func (val *Validator) birthday(fl validator.FieldLevel) bool {
	d, ok := dateOf(fl)
	return ok && !d.IsZero() && !model.DateOf(d).After(model.DateOf(val.now()).Time)
}

// Film checks the scalar film fields and that a rating is referenced.
func (val *Validator) Film(op string, f *model.Film) error {
	if f == nil {
		return apperr.Validation(op, "film body is required")
	}
	if err := val.v.Struct(f); err != nil {
		return translate(op, err)
	}
	if f.Mpa.ID <= 0 {
		return apperr.Validation(op, "mpa.id must be positive")
	}
	return nil
}

// User checks the user fields and fills an empty display name from the login.
func (val *Validator) User(op string, u *model.User) error {
	if u == nil {
		return apperr.Validation(op, "user body is required")
	}
	if err := val.v.Struct(u); err != nil {
		return translate(op, err)
	}
	if strings.TrimSpace(u.Name) == "" {
		u.Name = u.Login
	}
	return nil
}

func translate(op string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &apperr.Error{Op: op, Kind: apperr.ErrValidation, Msg: "invalid input", Err: err}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return apperr.Validation(op, "%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "notblank":
		return field + " must not be blank"
	case "nowhitespace":
		return field + " must not contain whitespace"
	case "contains":
		return field + " must contain " + fe.Param()
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	case "gt":
		return field + " must be positive"
	case "required":
		return field + " is required"
	case "releasedate":
		return field + " must not be before " + model.FirstFilmRelease.String()
	case "birthday":
		return field + " must be set and not in the future"
	default:
		return field + " failed " + fe.Tag()
	}
}
