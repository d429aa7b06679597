package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
	apperrors "github.com/zatekoja/cashflow-diagnosis/pkg/errors"
	"github.com/zatekoja/cashflow-diagnosis/pkg/utils"
)

const (
	maxCompanyLen = 200
	maxEmailLen   = 254
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// SubmissionInput is a raw form submission.
type SubmissionInput struct {
	Company     string               `json:"company"`
	Email       string               `json:"email"`
	Answers     map[string]string    `json:"answers"`
	Acquisition entities.Acquisition `json:"acquisition"`
}

// Normalize trims and folds the free-text fields in place.
func (in *SubmissionInput) Normalize() {
	in.Company = utils.NormalizeInput(in.Company)
	in.Email = strings.ToLower(utils.NormalizeInput(in.Email))
	in.Acquisition.Source = utils.NormalizeInput(in.Acquisition.Source)
	in.Acquisition.Medium = utils.NormalizeInput(in.Acquisition.Medium)
	in.Acquisition.Campaign = utils.NormalizeInput(in.Acquisition.Campaign)
}

// ValidateSubmission checks the fields the form requires. Choice values are
// not checked here; unrecognised choices are scored at the scale midpoint.
func ValidateSubmission(in SubmissionInput, q *entities.Questionnaire) error {
	var problems []string

	switch {
	case in.Company == "":
		problems = append(problems, "company name is required")
	case utils.RuneLen(in.Company) > maxCompanyLen:
		problems = append(problems, fmt.Sprintf("company name must be at most %d characters", maxCompanyLen))
	}

	switch {
	case in.Email == "":
		problems = append(problems, "email is required")
	case len(in.Email) > maxEmailLen || !emailPattern.MatchString(in.Email):
		problems = append(problems, "email format is invalid")
	}

	for _, qu := range q.Questions {
		if strings.TrimSpace(in.Answers[qu.ID]) == "" {
			problems = append(problems, fmt.Sprintf("answer for %s is required", qu.ID))
		}
	}

	if len(problems) > 0 {
		return apperrors.NewValidationError(problems...)
	}
	return nil
}
