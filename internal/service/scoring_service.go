package service

import (
	"fmt"

	"go.uber.org/zap"

	"csi-api/internal/domain"
)

// ScoringService convierte un ResponseSet completo en percentiles, niveles e interpretaciones.
// Es determinista y no guarda estado.
type ScoringService struct {
	logger *zap.Logger
}

func NewScoringService(logger *zap.Logger) *ScoringService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoringService{logger: logger}
}

// Score asume un ResponseSet ya validado (40 items, valores 0-4).
func (s *ScoringService) Score(responses domain.ResponseSet) (domain.ScoreResult, error) {
	indicators := domain.Indicators()
	result := domain.ScoreResult{
		RawScores:       make(map[domain.IndicatorCode]int, len(indicators)),
		Percentiles:     make(map[domain.IndicatorCode]int, len(indicators)),
		Levels:          make(map[domain.IndicatorCode]domain.Level, len(indicators)),
		Interpretations: make(map[domain.IndicatorCode]domain.Interpretation),
	}

	for _, ind := range indicators {
		raw := 0
		for _, item := range ind.ItemNumbers {
			raw += responses[item]
		}
		raw = s.clampRawScore(ind.Code, raw)

		percentile, err := domain.PercentileFor(ind.Code, raw)
		if err != nil {
			return domain.ScoreResult{}, fmt.Errorf("score %s: %w", ind.Code, err)
		}
		level := domain.LevelFor(percentile)

		result.RawScores[ind.Code] = raw
		result.Percentiles[ind.Code] = percentile
		result.Levels[ind.Code] = level

		switch level {
		case domain.LevelHigh:
			result.Summary.HighCount++
			result.Interpretations[ind.Code] = domain.Interpretation{
				Name: ind.DisplayName,
				Text: ind.HighInterpretation,
			}
		case domain.LevelMedium:
			result.Summary.MediumCount++
		default:
			result.Summary.LowCount++
		}
	}

	return result, nil
}

// clampRawScore acota a [0,20]. Si llega a actuar hay un bug de validacion aguas arriba.
func (s *ScoringService) clampRawScore(code domain.IndicatorCode, raw int) int {
	clamped := min(max(raw, domain.MinRawScore), domain.MaxRawScore)
	if clamped != raw {
		s.logger.Warn("raw score clamped, upstream validation let malformed responses through",
			zap.String("indicator", string(code)),
			zap.Int("raw_score", raw),
			zap.Int("clamped", clamped),
		)
	}
	return clamped
}
