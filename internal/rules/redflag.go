package rules

import (
	"regexp"
	"strings"
)

// Red-flag codes.
const (
	RedFlagRhabdomyolysis = "rhabdomyolysis"
	RedFlagHeatStroke     = "heat_stroke"
)

// RedFlag is a matched medical-emergency pattern in a user utterance.
type RedFlag struct {
	Code    string
	Matched string // the phrase that triggered the match
}

// EmergencyInstructions is the block injected verbatim into the system
// instructions whenever a red-flag pattern matches. The turn still routes
// through the model; the instructions force the escalation framing.
const EmergencyInstructions = `ALERTA MÉDICA (PRIORIDAD MÁXIMA):
Se han detectado posibles señales de emergencia médica en la consulta.
- Orina oscura (color té) o dolor muscular extremo tras el esfuerzo: sospecha de Rabdomiólisis Exergónica (ER). Detener la actividad de inmediato y derivar a atención médica urgente.
- Exposición al calor con esfuerzo de alta intensidad, confusión o colapso: sospecha de Golpe de Calor por Esfuerzo (EHS). Enfriamiento inmediato por inmersión y activación del Plan de Acción de Emergencia (EAP).
Responde SIEMPRE comenzando por la alerta y los pasos de escalado antes de cualquier otro análisis.`

// rpePattern matches explicit RPE mentions like "RPE 9", "rpe10" or "RPE: 10".
var rpePattern = regexp.MustCompile(`(?i)rpe\s*:?\s*(9|10)\b`)

// darkUrineTerms and painTerms drive the rhabdomyolysis pattern; heatTerms
// plus an intensity signal drive the heat-stroke pattern. Terms include the
// accentless spellings coaches actually type.
var (
	darkUrineTerms = []string{"orina oscura", "orina color té", "orina color te", "orina muy oscura", "dark urine"}
	painTerms      = []string{"dolor muscular extremo", "dolor muscular intenso", "dolor extremo", "no puedo mover", "hinchazón muscular", "hinchazon muscular"}
	heatTerms      = []string{"golpe de calor", "mucho calor", "calor extremo", "bajo el sol", "heat stroke", "sofocado", "mareado por el calor"}
	intensityTerms = []string{"alta intensidad", "sprints", "serie intensa", "doble sesión", "doble sesion", "máxima intensidad", "maxima intensidad"}
)

// DetectRedFlags scans an utterance for medical emergency patterns.
// Matching is case-insensitive substring search over a lowercased copy:
//   - dark urine alone, or extreme-pain terms co-occurring with RPE >= 9,
//     flag exertional rhabdomyolysis
//   - heat terms co-occurring with an intensity signal or RPE >= 9 flag
//     exertional heat stroke
//
// Returns nil when nothing matches.
func DetectRedFlags(utterance string) []RedFlag {
	text := strings.ToLower(utterance)
	highRPE := rpePattern.MatchString(text)

	var flags []RedFlag

	if term := firstMatch(text, darkUrineTerms); term != "" {
		flags = append(flags, RedFlag{Code: RedFlagRhabdomyolysis, Matched: term})
	} else if term := firstMatch(text, painTerms); term != "" && highRPE {
		flags = append(flags, RedFlag{Code: RedFlagRhabdomyolysis, Matched: term})
	}

	if term := firstMatch(text, heatTerms); term != "" {
		if highRPE || firstMatch(text, intensityTerms) != "" {
			flags = append(flags, RedFlag{Code: RedFlagHeatStroke, Matched: term})
		}
	}

	return flags
}

// firstMatch returns the first term contained in text, or "".
func firstMatch(text string, terms []string) string {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return t
		}
	}
	return ""
}
