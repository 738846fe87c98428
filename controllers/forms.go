package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/cppla/bloghub/models"
)

const (
	msgRequired      = "This field is required."
	msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	msgInvalidImage  = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	msgImageTooLarge = "The uploaded image is too large."
	nonFieldErrors   = "__all__"
)

// FormErrors maps a field name to its messages, in the order they were found.
type FormErrors map[string][]string

func (e FormErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e FormErrors) Valid() bool {
	return len(e) == 0
}

// collectBindErrors turns gin binding failures into field errors keyed by form name.
func collectBindErrors(err error, fields map[string]string, errs FormErrors) {
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add(nonFieldErrors, err.Error())
		return
	}
	for _, fe := range verrs {
		name, ok := fields[fe.Field()]
		if !ok {
			name = strings.ToLower(fe.Field())
		}
		switch fe.Tag() {
		case "required":
			errs.Add(name, msgRequired)
		default:
			errs.Add(name, "Enter a valid value.")
		}
	}
}

// PostForm is the create/edit form. Image is the stored path of the current
// attachment on edit; uploads themselves are read from the multipart body.
type PostForm struct {
	Text  string `form:"text" binding:"required"`
	Group string `form:"group"`

	Image  string         `form:"-"`
	Groups []models.Group `form:"-"`
	Errors FormErrors     `form:"-"`
}

var postFormFields = map[string]string{"Text": "text", "Group": "group"}

// bindPostForm reads the submitted fields and validates the required text.
func bindPostForm(ctx *gin.Context) *PostForm {
	form := &PostForm{Errors: FormErrors{}}
	collectBindErrors(ctx.ShouldBind(form), postFormFields, form.Errors)
	form.Group = strings.TrimSpace(form.Group)
	form.Text = strings.TrimSpace(form.Text)
	if _, failed := form.Errors["text"]; !failed && form.Text == "" {
		form.Errors.Add("text", msgRequired)
	}
	return form
}

// newPostForm pre-populates the form from an existing post (nil for create).
func newPostForm(post *models.Post, groups []models.Group) *PostForm {
	form := &PostForm{Groups: groups, Errors: FormErrors{}}
	if post != nil {
		form.Text = post.Text
		form.Image = post.Image
		if post.GroupID != nil {
			form.Group = strconv.FormatUint(uint64(*post.GroupID), 10)
		}
	}
	return form
}

// Selected reports whether the group option id is the form's current choice.
func (f *PostForm) Selected(id uint) bool {
	return f.Group != "" && f.Group == strconv.FormatUint(uint64(id), 10)
}

// GroupID resolves the chosen group against the offered choices.
// An empty choice means "no group"; an unknown one is a field error.
func (f *PostForm) GroupID() (*uint, bool) {
	if f.Group == "" {
		return nil, true
	}
	for _, g := range f.Groups {
		if f.Selected(g.ID) {
			id := g.ID
			return &id, true
		}
	}
	return nil, false
}

// CommentForm is the single-field comment form shown on the post page.
type CommentForm struct {
	Text   string     `form:"text" binding:"required"`
	Errors FormErrors `form:"-"`
}

var commentFormFields = map[string]string{"Text": "text"}

func bindCommentForm(ctx *gin.Context) *CommentForm {
	form := &CommentForm{Errors: FormErrors{}}
	collectBindErrors(ctx.ShouldBind(form), commentFormFields, form.Errors)
	form.Text = strings.TrimSpace(form.Text)
	if _, failed := form.Errors["text"]; !failed && form.Text == "" {
		form.Errors.Add("text", msgRequired)
	}
	return form
}
