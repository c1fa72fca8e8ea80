package nlp

import (
	"github.com/abadojack/whatlanggo"
	"github.com/chatbotx/gateway/internal/config"
)

// LanguageDetector detects the language of user messages. Detection is
// gated by configuration and always falls back to the default language
// rather than returning an error.
type LanguageDetector struct {
	enabled   bool
	supported map[string]bool
	fallback  string
}

// NewLanguageDetector creates a detector from the feature configuration
func NewLanguageDetector(cfg config.FeaturesConfig) *LanguageDetector {
	supported := make(map[string]bool, len(cfg.SupportedLanguages))
	for _, lang := range cfg.SupportedLanguages {
		supported[lang] = true
	}
	return &LanguageDetector{
		enabled:   cfg.EnableLanguageDetection,
		supported: supported,
		fallback:  cfg.DefaultLanguage,
	}
}

// Detect returns the ISO 639-1 code of the detected language when it is in
// the supported set, otherwise the configured default.
func (d *LanguageDetector) Detect(text string) string {
	if !d.enabled || text == "" {
		return d.fallback
	}

	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if code != "" && d.supported[code] {
		return code
	}
	return d.fallback
}
