package validators

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Email string `json:"email" validate:"required,email"`
	Goal  int    `json:"daily_protein_goal" validate:"gt=0"`
	Level string `json:"activity_level" validate:"omitempty,oneof=sedentary very_active"`
}

func TestMessageUsesJSONNames(t *testing.T) {
	err := New().Struct(sample{Goal: 1})
	require.Error(t, err)
	require.Equal(t, "email is required", Message(err))

	err = New().Struct(sample{Email: "a@b.com"})
	require.Error(t, err)
	require.Equal(t, "daily_protein_goal must be greater than 0", Message(err))

	err = New().Struct(sample{Email: "a@b.com", Goal: 3, Level: "lazy"})
	require.Error(t, err)
	require.Equal(t, "activity_level must be one of: sedentary very_active", Message(err))
}

func TestValidStruct(t *testing.T) {
	require.NoError(t, New().Struct(sample{Email: "a@b.com", Goal: 120, Level: "sedentary"}))
}
