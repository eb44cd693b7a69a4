package services

import (
	"fmt"
	"strconv"
	"strings"
)

// Canned assistant texts.
const (
	UnavailableReply    = "Service d'analyse temporairement indisponible. Veuillez réessayer dans quelques instants."
	NoProteinFoundReply = "Je n'ai pas pu identifier les protéines dans ce repas. Pouvez-vous être plus précis ?"
	NoFoodInImageReply  = "Je n'ai pas pu identifier d'aliments dans cette image. Pouvez-vous me décrire ce que vous avez mangé ?"
	NothingSavedReply   = "L'analyse a été effectuée mais aucun repas n'a pu être enregistré. Veuillez réessayer."
	ProfileMissingReply = "Je ne trouve pas encore votre profil. Terminez votre inscription pour suivre votre progression."
)

// ProgressEmoji picks the tier icon for a completion percentage.
func ProgressEmoji(percent float64) string {
	switch {
	case percent >= 100:
		return "🎉"
	case percent >= 75:
		return "💪"
	case percent >= 50:
		return "👍"
	default:
		return "📈"
	}
}

// FormatProgress renders today's progress. mealSaved prepends the
// confirmation line shown after logging food.
func FormatProgress(p *DailyProgress, mealSaved bool) string {
	var b strings.Builder
	if mealSaved {
		fmt.Fprintf(&b, "✅ Repas enregistré, %s !\n\n", p.DisplayName)
	}
	b.WriteString("📊 Votre progression aujourd'hui :\n")
	fmt.Fprintf(&b, "• Protéines consommées : %sg\n", grams(p.TotalProtein))
	fmt.Fprintf(&b, "• Objectif quotidien : %dg\n", p.Goal)
	fmt.Fprintf(&b, "• Progression : %s%% %s\n\n", grams(p.ProgressPercent), ProgressEmoji(p.ProgressPercent))
	if p.ProgressPercent >= 100 {
		b.WriteString("🎯 Félicitations ! Objectif atteint !")
	} else {
		fmt.Fprintf(&b, "Il vous reste %sg à consommer.", grams(p.Remaining()))
	}
	return b.String()
}

func GoalUpdatedReply(goal int) string {
	return fmt.Sprintf("🎯 Objectif mis à jour !\n\nVotre nouvel objectif quotidien est fixé à %dg de protéines.", goal)
}

func ResetReply(deleted int64) string {
	if deleted == 0 {
		return "🔄 Remise à zéro effectuée !\n\nAucun repas n'était enregistré aujourd'hui. Vous pouvez repartir de zéro."
	}
	return fmt.Sprintf("🔄 Remise à zéro effectuée !\n\nVos %d repas d'aujourd'hui ont été supprimés. Vous pouvez repartir de zéro.", deleted)
}

// WelcomeReply is the first assistant message after onboarding.
func WelcomeReply(name string, goal int) string {
	return fmt.Sprintf("👋 Bienvenue %s !\n\nVotre objectif quotidien est de %dg de protéines. "+
		"Décrivez-moi ce que vous mangez ou envoyez une photo de votre assiette, je m'occupe du calcul.", name, goal)
}

func grams(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
