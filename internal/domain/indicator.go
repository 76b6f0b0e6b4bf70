package domain

import "fmt"

// IndicatorCode identifica una de las 8 escalas de afrontamiento del CSI.
type IndicatorCode string

const (
	IndicatorREP IndicatorCode = "REP" // Resolucion de problemas
	IndicatorAUC IndicatorCode = "AUC" // Autocritica
	IndicatorEEM IndicatorCode = "EEM" // Expresion emocional
	IndicatorPSD IndicatorCode = "PSD" // Pensamiento desiderativo
	IndicatorAPS IndicatorCode = "APS" // Apoyo social
	IndicatorREC IndicatorCode = "REC" // Reestructuracion cognitiva
	IndicatorEVP IndicatorCode = "EVP" // Evitacion de problemas
	IndicatorRES IndicatorCode = "RES" // Retirada social
)

const (
	ItemCount         = 40
	ItemsPerIndicator = 5
	MinItemValue      = 0
	MaxItemValue      = 4
	MinRawScore       = 0
	MaxRawScore       = ItemsPerIndicator * MaxItemValue
)

// Indicator describe una escala: sus items, su nombre y su baremo.
type Indicator struct {
	Code               IndicatorCode
	DisplayName        string
	ItemNumbers        [ItemsPerIndicator]int
	HighInterpretation string
	percentiles        [MaxRawScore + 1]int
}

// Percentiles devuelve una copia del baremo (indice = puntaje directo).
func (i Indicator) Percentiles() [MaxRawScore + 1]int {
	return i.percentiles
}

var indicatorCatalog = [...]Indicator{
	{
		Code:               IndicatorREP,
		DisplayName:        "Resolución de Problemas",
		ItemNumbers:        [ItemsPerIndicator]int{1, 9, 17, 25, 33},
		HighInterpretation: "Se presenta un puntaje alto, lo cual sugiere una tendencia activa y constructiva hacia el manejo de situaciones estresantes. La persona tiende a enfrentar los problemas de manera directa, buscando soluciones prácticas y efectivas.",
		percentiles:        [MaxRawScore + 1]int{1, 1, 1, 2, 3, 5, 7, 10, 14, 18, 25, 32, 40, 48, 55, 62, 70, 77, 84, 91, 99},
	},
	{
		Code:               IndicatorAUC,
		DisplayName:        "Autocrítica",
		ItemNumbers:        [ItemsPerIndicator]int{2, 10, 18, 26, 34},
		HighInterpretation: "Se presenta un puntaje alto, esto puede reflejar una tendencia marcada de la persona a responsabilizarse en exceso por las dificultades que enfrenta. Puede mostrar auto señalamientos, sentimientos de culpa y percepciones negativas sobre su propio desempeño.",
		percentiles:        [MaxRawScore + 1]int{1, 2, 4, 7, 11, 16, 23, 30, 38, 46, 54, 62, 70, 77, 84, 89, 93, 96, 98, 99, 99},
	},
	{
		Code:               IndicatorEEM,
		DisplayName:        "Expresión Emocional",
		ItemNumbers:        [ItemsPerIndicator]int{3, 11, 19, 27, 35},
		HighInterpretation: "Se presenta un puntaje alto, lo cual indica que la persona tiende a liberar y comunicar sus emociones de manera frecuente. Esto puede ser adaptativo en contextos de apoyo, pero también puede volverse problemático si la expresión emocional es excesiva.",
		percentiles:        [MaxRawScore + 1]int{2, 5, 9, 14, 20, 27, 35, 43, 51, 59, 67, 74, 80, 86, 91, 94, 97, 98, 99, 99, 99},
	},
	{
		Code:               IndicatorPSD,
		DisplayName:        "Pensamiento Desiderativo",
		ItemNumbers:        [ItemsPerIndicator]int{4, 12, 20, 28, 36},
		HighInterpretation: "Se presenta un puntaje alto, esto puede sugerir que la persona recurre frecuentemente a deseos o fantasías sobre cómo le gustaría que fuera la situación. Aunque esto puede proporcionar un alivio temporal, generalmente no contribuye a resolver el problema.",
		percentiles:        [MaxRawScore + 1]int{1, 3, 6, 10, 15, 21, 28, 36, 44, 52, 60, 68, 75, 81, 87, 92, 95, 97, 99, 99, 99},
	},
	{
		Code:               IndicatorAPS,
		DisplayName:        "Apoyo Social",
		ItemNumbers:        [ItemsPerIndicator]int{5, 13, 21, 29, 37},
		HighInterpretation: "Se presenta un puntaje alto, lo cual refleja una disposición a buscar y aprovechar el soporte de otras personas. Este estilo de afrontamiento suele ser beneficioso, ya que permite compartir la carga emocional y fortalecer las redes de apoyo.",
		percentiles:        [MaxRawScore + 1]int{2, 4, 8, 13, 19, 26, 34, 42, 50, 58, 66, 73, 80, 86, 91, 94, 97, 98, 99, 99, 99},
	},
	{
		Code:               IndicatorREC,
		DisplayName:        "Reestructuración Cognitiva",
		ItemNumbers:        [ItemsPerIndicator]int{6, 14, 22, 30, 38},
		HighInterpretation: "Se presenta un puntaje alto, esto indica que la persona tiende a reformular mentalmente las situaciones estresantes para verlas desde una perspectiva más positiva o manejable. Esta estrategia cognitiva suele ser adaptativa.",
		percentiles:        [MaxRawScore + 1]int{1, 2, 4, 7, 11, 16, 22, 29, 37, 45, 53, 61, 69, 76, 83, 89, 93, 96, 98, 99, 99},
	},
	{
		Code:               IndicatorEVP,
		DisplayName:        "Evitación de Problemas",
		ItemNumbers:        [ItemsPerIndicator]int{7, 15, 23, 31, 39},
		HighInterpretation: "Se presenta un puntaje alto, esto puede sugerir una inclinación a esquivar o posponer la confrontación directa de los problemas. Aunque a corto plazo esto disminuya la tensión, a largo plazo tiende a perpetuar el estrés.",
		percentiles:        [MaxRawScore + 1]int{3, 6, 11, 17, 24, 32, 40, 48, 56, 64, 71, 78, 84, 89, 93, 96, 98, 99, 99, 99, 99},
	},
	{
		Code:               IndicatorRES,
		DisplayName:        "Retirada Social",
		ItemNumbers:        [ItemsPerIndicator]int{8, 16, 24, 32, 40},
		HighInterpretation: "Se presenta un puntaje alto, esto puede reflejar que la persona tiende a aislarse y reducir el contacto con su entorno. Este patrón puede dificultar el acceso a redes de apoyo y limitar las oportunidades de recibir ayuda externa.",
		percentiles:        [MaxRawScore + 1]int{4, 8, 13, 19, 26, 34, 42, 50, 58, 66, 73, 79, 85, 90, 94, 96, 98, 99, 99, 99, 99},
	},
}

// itemIndicator se construye una sola vez a partir del catalogo.
var itemIndicator = func() map[int]IndicatorCode {
	m := make(map[int]IndicatorCode, ItemCount)
	for _, ind := range indicatorCatalog {
		for _, item := range ind.ItemNumbers {
			m[item] = ind.Code
		}
	}
	return m
}()

// Indicators devuelve las 8 escalas en orden canonico.
func Indicators() []Indicator {
	out := make([]Indicator, len(indicatorCatalog))
	copy(out, indicatorCatalog[:])
	return out
}

// LookupIndicator busca una escala por codigo.
func LookupIndicator(code IndicatorCode) (Indicator, bool) {
	for _, ind := range indicatorCatalog {
		if ind.Code == code {
			return ind, true
		}
	}
	return Indicator{}, false
}

// IndicatorOf devuelve la escala a la que pertenece un item.
func IndicatorOf(itemNumber int) (IndicatorCode, error) {
	code, ok := itemIndicator[itemNumber]
	if !ok {
		return "", fmt.Errorf("%w: item %d is not part of the questionnaire", ErrDomain, itemNumber)
	}
	return code, nil
}

// PercentileFor traduce un puntaje directo al percentil del baremo.
// El llamador debe acotar rawScore a [0,20] antes de invocarla.
func PercentileFor(code IndicatorCode, rawScore int) (int, error) {
	ind, ok := LookupIndicator(code)
	if !ok {
		return 0, fmt.Errorf("%w: unknown indicator %q", ErrDomain, code)
	}
	if rawScore < MinRawScore || rawScore > MaxRawScore {
		return 0, fmt.Errorf("%w: raw score %d for %s outside %d-%d", ErrDomain, rawScore, code, MinRawScore, MaxRawScore)
	}
	return ind.percentiles[rawScore], nil
}
