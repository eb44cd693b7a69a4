package nutrition

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuantityDirectivePrefersGrams(t *testing.T) {
	d := quantityDirective("Une tranche, 45 G en tout")
	require.Contains(t, d, "45g")
	require.NotContains(t, d, "pain de mie")
}

func TestQuantityDirectivePortionPhrases(t *testing.T) {
	require.Contains(t, quantityDirective("J'ai pris UNE TRANCHE"), "une seule tranche (environ 20-30g pour du pain de mie)")
	require.Contains(t, quantityDirective("deux tranches seulement"), "deux tranches (environ 40-60g pour du pain de mie)")
	require.Contains(t, quantityDirective("un quart de la pizza"), "un quart de ce qui est visible")
}

func TestQuantityDirectiveFallsBackToContext(t *testing.T) {
	d := quantityDirective("c'était au restaurant")
	require.Contains(t, d, "Contexte de l'utilisateur")
	require.Contains(t, d, "c'était au restaurant")

	require.Empty(t, quantityDirective("   "))
}

func TestImagePromptAlwaysAsksForJSON(t *testing.T) {
	p := imagePrompt("")
	require.Contains(t, p, `"foods"`)
	require.NotContains(t, p, "IMPORTANT")
}
