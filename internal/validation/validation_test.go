package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "cyberguard/internal/errors"
	"cyberguard/internal/model"
)

func validReport() model.ReportInput {
	return model.ReportInput{
		IncidentType: "cyber",
		Platform:     "instagram",
		Description:  "Someone keeps posting my photos",
		Date:         "2025-03-14",
		Severity:     model.SeverityMedium,
		YourRole:     "target",
		Anonymous:    true,
	}
}

func TestStruct_ReportInput(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.ReportInput)
		wantErr string
	}{
		{"valid", func(*model.ReportInput) {}, ""},
		{"short description", func(r *model.ReportInput) { r.Description = "too short" }, "description must be at least 10 characters"},
		{"missing platform", func(r *model.ReportInput) { r.Platform = "" }, "platform is required"},
		{"critical not offered", func(r *model.ReportInput) { r.Severity = model.SeverityCritical }, "severity must be one of: low, medium, high"},
		{"unknown role", func(r *model.ReportInput) { r.YourRole = "principal" }, "yourRole must be one of"},
		{"bad date", func(r *model.ReportInput) { r.Date = "14/03/2025" }, "date must use the 2006-01-02 format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validReport()
			tt.mutate(&in)
			err := Struct(&in)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStruct_RegisterInput(t *testing.T) {
	ok := model.RegisterInput{Username: "sam", Email: "sam@example.com", Password: "secret1", ConfirmPassword: "secret1"}
	assert.NoError(t, Struct(&ok))

	mismatch := ok
	mismatch.ConfirmPassword = "secret2"
	err := Struct(&mismatch)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "ConfirmPassword must match Password")

	short := ok
	short.Password, short.ConfirmPassword = "12345", ""
	assert.ErrorContains(t, Struct(&short), "password must be at least 6 characters")

	badEmail := ok
	badEmail.Email = "sam"
	assert.ErrorContains(t, Struct(&badEmail), "email must be a valid email address")
}

func TestStruct_CreatePostInput(t *testing.T) {
	assert.NoError(t, Struct(&model.CreatePostInput{Content: "hello", Type: model.PostCyber}))
	assert.ErrorContains(t, Struct(&model.CreatePostInput{Content: "hello", Type: "emotional"}), "type must be one of")
	assert.ErrorContains(t, Struct(&model.CreatePostInput{}), "content is required")
}
