package nlp

import (
	"github.com/chatbotx/gateway/internal/config"
	"github.com/chatbotx/gateway/internal/domain"
	"github.com/jonreiter/govader"
)

// SentimentAnalyzer scores user messages with a VADER lexicon. Disabled
// analysis yields the neutral zero-vector.
type SentimentAnalyzer struct {
	enabled  bool
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewSentimentAnalyzer creates an analyzer from the feature configuration
func NewSentimentAnalyzer(cfg config.FeaturesConfig) *SentimentAnalyzer {
	return &SentimentAnalyzer{
		enabled:  cfg.EnableSentiment,
		analyzer: govader.NewSentimentIntensityAnalyzer(),
	}
}

// Analyze scores a message. The polarity/subjectivity pair is derived from
// the VADER vector: polarity tracks the compound score and subjectivity is
// the non-neutral share of the text.
func (a *SentimentAnalyzer) Analyze(text string) domain.SentimentScores {
	if !a.enabled || text == "" {
		return domain.NeutralSentiment()
	}

	scores := a.analyzer.PolarityScores(text)
	return domain.SentimentScores{
		Compound:     scores.Compound,
		Positive:     scores.Positive,
		Neutral:      scores.Neutral,
		Negative:     scores.Negative,
		Polarity:     scores.Compound,
		Subjectivity: 1.0 - scores.Neutral,
	}
}
