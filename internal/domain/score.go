package domain

// ResponseSet mapea numero de pregunta (1..40) a valor (0..4).
type ResponseSet map[int]int

// Level es la banda cualitativa derivada del percentil.
type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

const (
	mediumLowerBound = 35
	mediumUpperBound = 64
)

// LevelFor aplica los cortes: <35 bajo, 35-64 medio, >64 alto.
func LevelFor(percentile int) Level {
	switch {
	case percentile < mediumLowerBound:
		return LevelLow
	case percentile <= mediumUpperBound:
		return LevelMedium
	default:
		return LevelHigh
	}
}

type Interpretation struct {
	Name string `json:"name"`
	Text string `json:"interpretation"`
}

type LevelSummary struct {
	HighCount   int `json:"high_count"`
	MediumCount int `json:"medium_count"`
	LowCount    int `json:"low_count"`
}

// Total suma las tres bandas; para un resultado valido siempre es 8.
func (s LevelSummary) Total() int {
	return s.HighCount + s.MediumCount + s.LowCount
}

// ScoreResult es el resultado inmutable de puntuar un ResponseSet completo.
type ScoreResult struct {
	RawScores       map[IndicatorCode]int            `json:"raw_scores"`
	Percentiles     map[IndicatorCode]int            `json:"percentiles"`
	Levels          map[IndicatorCode]Level          `json:"levels"`
	Interpretations map[IndicatorCode]Interpretation `json:"interpretations"`
	Summary         LevelSummary                     `json:"summary"`
}
