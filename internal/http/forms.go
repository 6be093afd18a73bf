package http

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/sujalbistaa/yatube/internal/errors"
)

// --- Request binding ---

type PostForm struct {
	Text  string `form:"text" json:"text" binding:"notblank"`
	Group *uint  `form:"group" json:"group"`
}

// GroupID treats a missing or zero group as no group.
func (f PostForm) GroupID() *uint {
	if f.Group == nil || *f.Group == 0 {
		return nil
	}
	return f.Group
}

type CommentForm struct {
	Text string `form:"text" json:"text" binding:"notblank"`
}

type GroupForm struct {
	Title       string `form:"title" json:"title" binding:"notblank,max=200"`
	Slug        string `form:"slug" json:"slug" binding:"required,max=50,slug"`
	Description string `form:"description" json:"description" binding:"notblank"`
}

type CredentialsForm struct {
	Username string `form:"username" json:"username" binding:"required,max=150,username"`
	Password string `form:"password" json:"password" binding:"required,min=8,max=72"`
}

// --- Validators ---

var (
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	registerOnce    sync.Once
)

// RegisterValidators adds the custom tags used by the forms to gin's
// validator and makes errors report form field names.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		v.RegisterValidation("notblank", ValidateNotBlank)
		v.RegisterValidation("slug", ValidateSlug)
		v.RegisterValidation("username", ValidateUsername)
	})
}

// ValidateNotBlank rejects empty and whitespace-only strings.
func ValidateNotBlank(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	return ok && strings.TrimSpace(s) != ""
}

func ValidateSlug(fl validator.FieldLevel) bool {
	return slugPattern.MatchString(fl.Field().String())
}

func ValidateUsername(fl validator.FieldLevel) bool {
	return usernamePattern.MatchString(fl.Field().String())
}

// bindForm binds the request into form and turns failures into field
// messages.
func bindForm(c *gin.Context, form interface{}) map[string]string {
	err := c.ShouldBind(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
		return fields
	}
	return map[string]string{"request": "malformed request: " + err.Error()}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "this field is required"
	case "max":
		return fmt.Sprintf("ensure this value has at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("ensure this value has at least %s characters", fe.Param())
	case "slug":
		return "enter a valid slug consisting of letters, numbers, underscores or hyphens"
	case "username":
		return "enter a valid username: letters, digits and @/./+/-/_ only"
	}
	return "invalid value"
}

// validationError is nil when fields is empty.
func validationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return apperrors.Validation(fields)
}
