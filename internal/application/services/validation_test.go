package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
	apperrors "github.com/zatekoja/cashflow-diagnosis/pkg/errors"
)

func TestValidateSubmission(t *testing.T) {
	q := defaultQuestionnaire(t)

	tests := []struct {
		name    string
		mutate  func(in *SubmissionInput)
		wantErr string
	}{
		{name: "valid", mutate: func(in *SubmissionInput) {}},
		{name: "missing company", mutate: func(in *SubmissionInput) { in.Company = "" }, wantErr: "company name is required"},
		{name: "missing email", mutate: func(in *SubmissionInput) { in.Email = "" }, wantErr: "email is required"},
		{name: "bad email", mutate: func(in *SubmissionInput) { in.Email = "owner@localhost" }, wantErr: "email format is invalid"},
		{name: "email with space", mutate: func(in *SubmissionInput) { in.Email = "a b@c.jp" }, wantErr: "email format is invalid"},
		{name: "missing answer", mutate: func(in *SubmissionInput) { in.Answers["q10"] = " " }, wantErr: "answer for q10 is required"},
		{name: "unknown answer is accepted", mutate: func(in *SubmissionInput) { in.Answers["q10"] = "Sometimes maybe" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := SubmissionInput{Company: "Acme", Email: "owner@acme.jp", Answers: healthyChoices()}
			tt.mutate(&in)

			err := ValidateSubmission(in, q)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSubmissionInput_Normalize(t *testing.T) {
	in := SubmissionInput{
		Company:     "　株式会社ＡＢＣ ",
		Email:       " Owner@Example.COM ",
		Acquisition: entities.Acquisition{Source: " mail ", Campaign: "spring\n"},
	}
	in.Normalize()

	assert.Equal(t, "株式会社ABC", in.Company)
	assert.Equal(t, "owner@example.com", in.Email)
	assert.Equal(t, "mail", in.Acquisition.Source)
	assert.Equal(t, "spring", in.Acquisition.Campaign)
}
