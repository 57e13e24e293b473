package booking

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/halcyon-studio/slotbook/services/booking-service/internal/availability"
)

const DateLayout = "2006-01-02"

// Request is the external booking input.
type Request struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,max=255,basic_email"`
	Message string `json:"message" validate:"max=5000"`
	Date    string `json:"date" validate:"required,booking_date"`
	Time    string `json:"time" validate:"required,booking_time"`
}

// Candidate is a fully resolved booking attempt. A zero End is computed from
// the configured duration; a non-zero End must match it.
type Candidate struct {
	Start   time.Time
	End     time.Time
	Name    string
	Email   string
	Message string
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "basic_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "booking_date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil
	})
	mustRegister(v, "booking_time", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		_, err := availability.ParseClock(s)
		return err == nil && len(s) == len("15:04")
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s: %v", tag, err))
	}
}

// Normalize trims surrounding whitespace from every field.
func (r Request) Normalize() Request {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Message = strings.TrimSpace(r.Message)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	return r
}

// Validate reports every failing field at once.
func (r Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Fields: map[string]string{"request": err.Error()}}
	}
	out := &ValidationError{}
	for _, fe := range fieldErrs {
		out.add(fe.Field(), describe(fe))
	}
	return out
}

// Candidate resolves the request's wall-clock date and time in loc.
func (r Request) Candidate(loc *time.Location) (Candidate, error) {
	if err := r.Validate(); err != nil {
		return Candidate{}, err
	}
	date, err := time.ParseInLocation(DateLayout, r.Date, loc)
	if err != nil {
		return Candidate{}, invalid("date", "must be YYYY-MM-DD")
	}
	clock, err := availability.ParseClock(r.Time)
	if err != nil {
		return Candidate{}, invalid("time", "must be HH:mm")
	}
	return Candidate{
		Start:   availability.At(date, clock, loc),
		Name:    r.Name,
		Email:   r.Email,
		Message: r.Message,
	}, nil
}

func (c Candidate) validate() error {
	v := &ValidationError{}
	name := strings.TrimSpace(c.Name)
	email := strings.TrimSpace(c.Email)
	switch {
	case name == "":
		v.add("name", "is required")
	case len([]rune(name)) > 100:
		v.add("name", "must be at most 100 characters")
	}
	switch {
	case email == "":
		v.add("email", "is required")
	case len([]rune(email)) > 255:
		v.add("email", "must be at most 255 characters")
	case !emailPattern.MatchString(email):
		v.add("email", "must be a valid email address")
	}
	if len([]rune(c.Message)) > 5000 {
		v.add("message", "must be at most 5000 characters")
	}
	if c.Start.IsZero() {
		v.add("start", "is required")
	}
	if len(v.Fields) > 0 {
		return v
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "basic_email":
		return "must be a valid email address"
	case "booking_date":
		return "must be YYYY-MM-DD"
	case "booking_time":
		return "must be HH:mm"
	default:
		return "is invalid"
	}
}
