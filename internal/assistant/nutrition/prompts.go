package nutrition

const resultFormat = `{
  "foods": [
    {"name": "nom de l'aliment", "estimated_grams": nombre, "protein_per_100g": nombre, "protein_in_portion": nombre}
  ],
  "total_protein": nombre,
  "confidence": "high|medium|low",
  "reasoning": "explication du calcul"
}`

const textSystemPrompt = `Tu es nutritionniste. On te décrit un repas et tu calcules les protéines qu'il apporte.

Réponds UNIQUEMENT avec un objet JSON de cette forme :
` + resultFormat + `

Règles :
- si la quantité n'est pas précisée, estime une portion réaliste
- utilise les valeurs nutritionnelles de référence
- calcule les protéines de chaque portion avec soin
- en cas de doute, indique une confiance "medium" ou "low"`

const imageBasePrompt = `Analyse la photo de ce repas et identifie TOUS les aliments visibles.
Pour chacun : nom précis, quantité estimée en grammes, protéines pour 100g et protéines dans la portion.
S'il s'agit d'un plat préparé, liste tous ses ingrédients principaux.`

func imagePrompt(message string) string {
	prompt := imageBasePrompt
	if d := quantityDirective(message); d != "" {
		prompt += "\n\n" + d
	}
	return prompt + "\n\nRéponds UNIQUEMENT avec un objet JSON de cette forme :\n" + resultFormat
}
