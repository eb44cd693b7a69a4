package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatProgress(t *testing.T) {
	p := &DailyProgress{DisplayName: "Camille", TotalProtein: 30, Goal: 120, ProgressPercent: 25}

	require.Equal(t,
		"✅ Repas enregistré, Camille !\n\n"+
			"📊 Votre progression aujourd'hui :\n"+
			"• Protéines consommées : 30g\n"+
			"• Objectif quotidien : 120g\n"+
			"• Progression : 25% 📈\n\n"+
			"Il vous reste 90g à consommer.",
		FormatProgress(p, true))

	done := &DailyProgress{TotalProtein: 130.5, Goal: 120, ProgressPercent: 108.8}
	out := FormatProgress(done, false)
	require.NotContains(t, out, "Repas enregistré")
	require.Contains(t, out, "108.8% 🎉")
	require.Contains(t, out, "🎯 Félicitations ! Objectif atteint !")
}

func TestProgressEmojiTiers(t *testing.T) {
	require.Equal(t, "🎉", ProgressEmoji(100))
	require.Equal(t, "💪", ProgressEmoji(75))
	require.Equal(t, "👍", ProgressEmoji(50))
	require.Equal(t, "📈", ProgressEmoji(49.9))
}
