package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/magdyelboushy-stack/platform/domain"
)

// Registration wizard steps.
const (
	StepAccount   = 1
	StepGuardian  = 2
	StepEducation = 3
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	// Egyptian mobile numbers: 11 digits, 010/011/012/015 prefixes.
	phonePattern = regexp.MustCompile(`^01[0125][0-9]{8}$`)
)

var stepFields = map[int][]string{
	StepAccount:   {"name", "email", "phone", "password"},
	StepGuardian:  {"guardian_name", "parent_phone", "birth_date", "gender"},
	StepEducation: {"education_stage", "grade_level", "governorate", "city"},
}

// StepValidatorImpl implements domain.StepValidator. Uniqueness rules
// consult the user repository; everything else is pure.
type StepValidatorImpl struct {
	userRepo domain.UserRepository
}

// NewStepValidator creates a new registration validator
func NewStepValidator(userRepo domain.UserRepository) domain.StepValidator {
	return &StepValidatorImpl{userRepo: userRepo}
}

// ValidateStep implements domain.StepValidator. A pure probe: it applies
// the rules of the fields that belong to the step and are present in the
// submitted data, and persists nothing.
func (v *StepValidatorImpl) ValidateStep(ctx context.Context, step int, data map[string]string) domain.ValidationErrors {
	verrs := domain.ValidationErrors{}

	fields, ok := stepFields[step]
	if !ok {
		verrs.Add("step", fmt.Sprintf("unknown registration step %d", step))
		return verrs
	}

	for _, field := range fields {
		value, present := data[field]
		if !present {
			continue
		}
		v.checkField(ctx, verrs, field, value, data)
	}

	return verrs
}

// ValidateRegistration implements domain.StepValidator. Applies the full
// rule set; required fields must be present and valid.
func (v *StepValidatorImpl) ValidateRegistration(ctx context.Context, input *domain.RegistrationInput) domain.ValidationErrors {
	verrs := domain.ValidationErrors{}

	fields := map[string]string{
		"name":            input.Name,
		"email":           input.Email,
		"password":        input.Password,
		"phone":           input.Phone,
		"parent_phone":    input.ParentPhone,
		"guardian_name":   input.GuardianName,
		"school_name":     input.SchoolName,
		"grade_level":     input.GradeLevel,
		"education_stage": input.EducationStage,
		"governorate":     input.Governorate,
		"city":            input.City,
		"birth_date":      input.BirthDate,
		"gender":          input.Gender,
	}

	required := []string{"name", "email", "password", "phone", "education_stage", "governorate", "city"}
	for _, field := range required {
		if strings.TrimSpace(fields[field]) == "" {
			verrs.Add(field, "this field is required")
		}
	}

	for field, value := range fields {
		if strings.TrimSpace(value) == "" {
			continue
		}
		v.checkField(ctx, verrs, field, value, fields)
	}

	return verrs
}

// checkField applies the rule for a single non-empty field. data carries
// sibling fields for cross-field rules (parent_phone vs phone).
func (v *StepValidatorImpl) checkField(ctx context.Context, verrs domain.ValidationErrors, field, value string, data map[string]string) {
	value = strings.TrimSpace(value)

	switch field {
	case "name":
		if len([]rune(value)) < 3 {
			verrs.Add(field, "name must be at least 3 characters")
		} else if len([]rune(value)) > 50 {
			verrs.Add(field, "name must be at most 50 characters")
		} else if v.userRepo != nil {
			if _, err := v.userRepo.FindByName(ctx, value); err == nil {
				verrs.Add(field, "name is already taken")
			}
		}
	case "email":
		if !emailPattern.MatchString(value) {
			verrs.Add(field, "invalid email address")
		} else if v.userRepo != nil {
			if _, err := v.userRepo.FindByEmail(ctx, value); err == nil {
				verrs.Add(field, "email is already registered")
			}
		}
	case "password":
		if len(value) < 8 {
			verrs.Add(field, "password must be at least 8 characters")
		} else if !passwordStrong(value) {
			verrs.Add(field, "password must contain letters and digits")
		}
	case "phone":
		if !phonePattern.MatchString(value) {
			verrs.Add(field, "invalid phone number")
		} else if v.userRepo != nil {
			if _, err := v.userRepo.FindByPhone(ctx, value); err == nil {
				verrs.Add(field, "phone is already registered")
			}
		}
	case "parent_phone":
		if !phonePattern.MatchString(value) {
			verrs.Add(field, "invalid guardian phone number")
		} else if value == strings.TrimSpace(data["phone"]) && value != "" {
			verrs.Add(field, "guardian phone must differ from student phone")
		}
	case "guardian_name":
		if len([]rune(value)) < 3 {
			verrs.Add(field, "guardian name must be at least 3 characters")
		}
	case "school_name":
		if len([]rune(value)) > 200 {
			verrs.Add(field, "school name must be at most 200 characters")
		}
	case "birth_date":
		if _, err := time.Parse("2006-01-02", value); err != nil {
			verrs.Add(field, "birth date must be YYYY-MM-DD")
		}
	case "gender":
		if value != "male" && value != "female" {
			verrs.Add(field, "gender must be male or female")
		}
	case "grade_level":
		if !oneOf(value, "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12") {
			verrs.Add(field, "invalid grade level")
		}
	case "education_stage":
		if !oneOf(value, "primary", "prep", "secondary") {
			verrs.Add(field, "education stage must be primary, prep or secondary")
		}
	case "governorate", "city":
		if len([]rune(value)) < 2 {
			verrs.Add(field, field+" must be at least 2 characters")
		}
	}
}

func passwordStrong(password string) bool {
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func oneOf(value string, options ...string) bool {
	for _, o := range options {
		if value == o {
			return true
		}
	}
	return false
}
