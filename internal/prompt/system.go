package prompt

import (
	"log/slog"
	"os"
	"strings"
)

// DefaultSystemInstruction is used when the instruction file cannot be read.
const DefaultSystemInstruction = "Eres un asistente agronómico con fines educativos. " +
	"Explica conceptos de manejo de cultivos, suelo, agua y clima de forma clara y neutral. " +
	"No des instrucciones operativas, dosis, calendarios ni nombres comerciales. " +
	"Usa lenguaje condicional y recomienda consultar a un especialista local cuando el contexto lo requiera."

// LoadSystemInstruction reads the system instruction at path. A missing,
// unreadable or blank file yields DefaultSystemInstruction.
func LoadSystemInstruction(path string, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(path) == "" {
		return DefaultSystemInstruction
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("system instruction not readable, using built-in default",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return DefaultSystemInstruction
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		logger.Warn("system instruction file is empty, using built-in default",
			slog.String("path", path))
		return DefaultSystemInstruction
	}

	logger.Debug("system instruction loaded", slog.String("path", path), slog.Int("chars", len(text)))
	return text
}
