package views

import (
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/isdelr/mantis-client/internal/models"
)

// FieldErrors maps a form field to its validation message. These stay on
// the form and never reach the session error.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+f[field])
	}
	return strings.Join(parts, "; ")
}

func (f FieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return f
}

// check records msg for field unless the field already failed.
func (f FieldErrors) check(field string, failed bool, msg string) {
	if _, done := f[field]; done || !failed {
		return
	}
	f[field] = msg
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func shorter(s string, n int) bool {
	return utf8.RuneCountInString(s) < n
}

// ValidateLogin checks the login form.
func ValidateLogin(username, password string) error {
	errs := FieldErrors{}
	errs.check("username", blank(username), "Username is required")
	errs.check("username", shorter(username, 3), "Username must be at least 3 characters")
	errs.check("password", password == "", "Password is required")
	errs.check("password", shorter(password, 6), "Password must be at least 6 characters")
	return errs.err()
}

// ValidateRegister checks the registration form.
func ValidateRegister(in models.RegisterInput) error {
	errs := FieldErrors{}
	errs.check("username", blank(in.Username), "Username is required")
	errs.check("username", shorter(in.Username, 3), "Username must be at least 3 characters")
	errs.check("password", in.Password == "", "Password is required")
	errs.check("password", shorter(in.Password, 6), "Password must be at least 6 characters")
	errs.check("confirmPassword", in.ConfirmPassword == "", "Please confirm your password")
	errs.check("confirmPassword", in.ConfirmPassword != in.Password, "Passwords do not match")
	return errs.err()
}

var (
	statuses   = []string{models.StatusOpen, models.StatusClosed}
	priorities = []string{models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent}
)

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// ValidateIssue checks the create issue form. Empty status and priority are
// allowed; the issue service fills in defaults.
func ValidateIssue(in models.IssueInput) error {
	errs := FieldErrors{}
	errs.check("title", blank(in.Title), "Title is required")
	errs.check("title", shorter(in.Title, 3), "Title must be at least 3 characters")
	errs.check("status", in.Status != "" && !oneOf(in.Status, statuses), "Status must be open or closed")
	errs.check("priority", in.Priority != "" && !oneOf(in.Priority, priorities), "Priority must be low, medium, high or urgent")
	return errs.err()
}

// ValidateIssuePatch checks the fields present in an issue update.
func ValidateIssuePatch(p models.IssuePatch) error {
	errs := FieldErrors{}
	if p.Title != nil {
		errs.check("title", blank(*p.Title), "Title is required")
		errs.check("title", shorter(*p.Title, 3), "Title must be at least 3 characters")
	}
	if p.Status != nil {
		errs.check("status", !oneOf(*p.Status, statuses), "Status must be open or closed")
	}
	if p.Priority != nil {
		errs.check("priority", !oneOf(*p.Priority, priorities), "Priority must be low, medium, high or urgent")
	}
	return errs.err()
}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// labelPalette is where new labels draw their default color from.
var labelPalette = []string{
	"#e74c3c", "#3498db", "#2ecc71", "#f39c12", "#9b59b6",
	"#1abc9c", "#34495e", "#e67e22", "#95a5a6", "#f1c40f",
}

// RandomLabelColor picks a default label color.
func RandomLabelColor() string {
	return labelPalette[rand.Intn(len(labelPalette))]
}

// ValidateLabel checks the label form, assigning a random color when none
// was chosen.
func ValidateLabel(in *models.LabelInput) error {
	if in.Color == "" {
		in.Color = RandomLabelColor()
	}
	errs := FieldErrors{}
	errs.check("name", blank(in.Name), "Name is required")
	errs.check("name", shorter(in.Name, 2), "Name must be at least 2 characters")
	errs.check("color", !colorPattern.MatchString(in.Color), "Color must look like #rrggbb")
	return errs.err()
}

// ValidateMilestone checks the milestone form.
func ValidateMilestone(in models.MilestoneInput) error {
	errs := FieldErrors{}
	errs.check("title", blank(in.Title), "Title is required")
	errs.check("title", shorter(in.Title, 3), "Title must be at least 3 characters")
	errs.check("status", in.Status != "" && !oneOf(in.Status, statuses), "Status must be open or closed")
	if in.DueDate != "" {
		_, err := time.Parse(models.DateLayout, in.DueDate)
		errs.check("dueDate", err != nil, "Due date must be YYYY-MM-DD")
	}
	return errs.err()
}

// ValidateComment checks the comment form.
func ValidateComment(content string) error {
	errs := FieldErrors{}
	errs.check("content", blank(content), "Content is required")
	return errs.err()
}
