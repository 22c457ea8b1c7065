package validator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nikhil/orgchart/internal/apperrors"
)

type profileRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Phone    *string `json:"phone" validate:"omitempty,phone"`
	Telegram *string `json:"telegram" validate:"omitempty,telegram"`
	TimeZone *int    `json:"time_zone" validate:"omitempty,gte=-12,lte=14"`
}

func str(s string) *string { return &s }

func TestValidateReportsJSONFieldNames(t *testing.T) {
	tz := 20
	err := Validate(profileRequest{
		Email:    "not-an-email",
		Password: "short",
		Phone:    str("79991234567"),
		Telegram: str("durov"),
		TimeZone: &tz,
	})

	var fields apperrors.FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Contains(t, fields, "email")
	require.Contains(t, fields, "password")
	require.Contains(t, fields, "phone")
	require.Contains(t, fields, "telegram")
	require.Contains(t, fields, "time_zone")
}

func TestValidateAcceptsValidInput(t *testing.T) {
	tz := -12
	require.NoError(t, Validate(profileRequest{
		Email:    "a@b.ru",
		Password: "12345678",
		Phone:    str("89991234567"),
		Telegram: str("@jane.doe_1"),
		TimeZone: &tz,
	}))
}

func TestValidateSkipsAbsentOptionalFields(t *testing.T) {
	require.NoError(t, Validate(profileRequest{Email: "a@b.ru", Password: "12345678"}))
}
