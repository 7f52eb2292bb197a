package prompt

// Reframe prompts used when the first answer comes back empty or blocked.
// Each stage is more generic than the previous one.
const (
	// Reframe1Suffix is appended to the original prompt.
	Reframe1Suffix = "\n\nReformulación: Proporciona únicamente un resumen educativo general de alto nivel. " +
		"Evita pasos operativos, cantidades, dosis, calendarios o imperativos. " +
		"No incluyas productos, marcas ni instrucciones de ‘cómo hacer’. " +
		"En su lugar, resume factores a considerar, buenas prácticas generales y señales de monitoreo, usando lenguaje condicional. " +
		"No apliques límites de longitud estrictos; prioriza neutralidad y claridad (≈150–300 palabras en bullets)."

	// Reframe2Prompt replaces the original prompt entirely.
	Reframe2Prompt = "Finalidad educativa: Ofrece un panorama general sobre el manejo de cultivos en términos amplios y neutros. " +
		"Evita pasos operativos, cantidades, dosis, calendarios, marcas o productos. " +
		"Usa bullets y lenguaje condicional para describir factores a considerar (clima, suelo, fenología, monitoreo), " +
		"sin recomendaciones prescriptivas."

	// Reframe3Suffix is appended to the original prompt for short answers.
	Reframe3Suffix = "\n\nAjuste de formato: Responde de forma concisa (≈ 200–300 palabras) en bullets educativos. " +
		"Evita pasos, cantidades numéricas, calendarios, marcas o productos. Usa lenguaje condicional."
)
