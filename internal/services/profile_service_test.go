package services

import (
	"context"
	"testing"

	"github.com/dynprot/engine/internal/models"
	appErr "github.com/dynprot/engine/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestCompleteOnboarding(t *testing.T) {
	f := newFixture(t)
	svc := NewProfileService(f.users, f.profiles, nil)
	ctx := context.Background()

	u := &models.User{Email: "o@example.com", PasswordHash: "x", DisplayName: "O"}
	require.NoError(t, f.users.Create(ctx, u))

	got, err := svc.CompleteOnboarding(ctx, u.ID, &OnboardingInput{
		DisplayName:      "Océane",
		Age:              28,
		WeightKg:         62.5,
		ActivityLevel:    models.ActivityVeryActive,
		PrimaryObjective: models.ObjectiveGainMuscle,
		DailyProteinGoal: 110,
	})
	require.NoError(t, err)
	require.True(t, got.OnboardingCompleted)
	require.Equal(t, "Océane", got.DisplayName)
	require.Equal(t, 110, got.Profile.DailyProteinGoal)
	require.Equal(t, models.ActivityVeryActive, got.Profile.ActivityLevel)
}

func TestCompleteOnboardingValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewProfileService(f.users, f.profiles, nil)
	ctx := context.Background()

	u := &models.User{Email: "v@example.com", PasswordHash: "x", DisplayName: "V"}
	require.NoError(t, f.users.Create(ctx, u))

	cases := map[string]*OnboardingInput{
		"zero goal":        {DisplayName: "V", Age: 30, WeightKg: 70, DailyProteinGoal: 0},
		"missing weight":   {DisplayName: "V", Age: 30, DailyProteinGoal: 100},
		"unknown activity": {DisplayName: "V", Age: 30, WeightKg: 70, DailyProteinGoal: 100, ActivityLevel: "couch"},
		"blank name":       {DisplayName: " ", Age: 30, WeightKg: 70, DailyProteinGoal: 100},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CompleteOnboarding(ctx, u.ID, in)
			require.True(t, appErr.IsCode(err, appErr.CodeInvalid), "got %v", err)
		})
	}
}

func TestUpdateProfileIsPartial(t *testing.T) {
	f := newFixture(t)
	svc := NewProfileService(f.users, f.profiles, nil)
	ctx := context.Background()
	u := f.onboardedUser(t, "u@example.com", 100)

	weight := 75.0
	name := "Cam"
	got, err := svc.UpdateProfile(ctx, u.ID, &UpdateProfileInput{WeightKg: &weight, DisplayName: &name})
	require.NoError(t, err)
	require.Equal(t, 75.0, got.Profile.WeightKg)
	require.Equal(t, 30, got.Profile.Age)
	require.Equal(t, 100, got.Profile.DailyProteinGoal)
	require.Equal(t, "Cam", got.DisplayName)

	bad := "sofa"
	_, err = svc.UpdateProfile(ctx, u.ID, &UpdateProfileInput{ActivityLevel: &bad})
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}

func TestUpdateGoal(t *testing.T) {
	f := newFixture(t)
	svc := NewProfileService(f.users, f.profiles, nil)
	ctx := context.Background()
	u := f.onboardedUser(t, "g@example.com", 100)

	require.NoError(t, svc.UpdateGoal(ctx, u.ID, 0))
	got, err := svc.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	require.Zero(t, got.Profile.DailyProteinGoal)

	require.True(t, appErr.IsCode(svc.UpdateGoal(ctx, u.ID, -1), appErr.CodeInvalid))
}

func TestRecommendGoal(t *testing.T) {
	r := RecommendGoal(70, models.ActivityModeratelyActive)
	require.Equal(t, 84, r.Min)
	require.Equal(t, 98, r.Max)
	require.Equal(t, 91, r.Recommended)

	fallback := RecommendGoal(70, "unknown")
	require.Equal(t, 56, fallback.Min)
	require.Equal(t, 70, fallback.Max)
}
