package nutrition

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var gramAmount = regexp.MustCompile(`(?i)(\d+)\s*g`)

// Checked in order; the first phrase found in the message wins.
var portionPhrases = []struct {
	phrase    string
	directive string
}{
	{"une tranche", "une seule tranche (environ 20-30g pour du pain de mie)"},
	{"deux tranches", "deux tranches (environ 40-60g pour du pain de mie)"},
	{"un morceau", "un morceau"},
	{"une portion", "une portion individuelle"},
	{"la moitié", "la moitié de ce qui est visible"},
	{"un quart", "un quart de ce qui est visible"},
	{"une part", "une part individuelle"},
}

// QuantityOverride returns the gram amount stated in the message, if any.
func QuantityOverride(message string) (int, bool) {
	m := gramAmount.FindStringSubmatch(message)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// PortionHint returns the portion description matching the message, if any.
func PortionHint(message string) (string, bool) {
	lower := strings.ToLower(message)
	for _, p := range portionPhrases {
		if strings.Contains(lower, p.phrase) {
			return p.directive, true
		}
	}
	return "", false
}

// quantityDirective turns the user's message into the extra instruction
// appended to the image prompt.
func quantityDirective(message string) string {
	message = strings.TrimSpace(message)
	if message == "" {
		return ""
	}
	if grams, ok := QuantityOverride(message); ok {
		return fmt.Sprintf("IMPORTANT : l'utilisateur indique que la quantité totale est de %dg. Base ton calcul des protéines sur cette quantité.", grams)
	}
	if hint, ok := PortionHint(message); ok {
		return fmt.Sprintf("IMPORTANT : l'utilisateur n'a mangé que %s. Ajuste les quantités en conséquence, même si la photo en montre davantage.", hint)
	}
	return fmt.Sprintf("Contexte de l'utilisateur : %q", message)
}
