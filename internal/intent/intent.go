// Package intent classifies user utterances into a closed set of dispatch
// tags so the orchestrator can decide deterministically which collaborators
// a turn needs. Pure functions only: no model calls, fully unit-testable.
package intent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kineticguard/kinetic/internal/rules"
)

// Intent is the closed set of dispatch tags for a turn.
type Intent int

const (
	// Neither needs no collaborator: greetings, general habit questions the
	// rule table already covers.
	Neither Intent = iota
	// Retrieval needs guideline passages from the vector index.
	Retrieval
	// Lookup needs athlete metrics from the relational store.
	Lookup
	// Both needs guideline passages and athlete metrics.
	Both
)

// String returns the tag name for logging.
func (i Intent) String() string {
	switch i {
	case Neither:
		return "neither"
	case Retrieval:
		return "retrieval"
	case Lookup:
		return "lookup"
	case Both:
		return "both"
	default:
		return "unknown"
	}
}

// Classification is the full result of classifying one utterance.
type Classification struct {
	Intent    Intent
	RedFlags  []rules.RedFlag // non-empty forces emergency instructions
	AthleteID string          // normalized "atleta_NN", empty if none referenced
}

// NeedsRetrieval reports whether the turn should query the vector index.
// Red-flag turns always retrieve: the emergency answer cites protocol.
func (c Classification) NeedsRetrieval() bool {
	return c.Intent == Retrieval || c.Intent == Both || len(c.RedFlags) > 0
}

// NeedsLookup reports whether the turn should query the metrics store.
func (c Classification) NeedsLookup() bool {
	return c.Intent == Lookup || c.Intent == Both
}

// athleteRef matches athlete references: "atleta 1", "atleta_01", "el atleta 12".
var athleteRef = regexp.MustCompile(`(?i)atleta[_\s]*0*(\d{1,3})\b`)

// retrievalTerms signal questions about science, protocol, risk or safety
// that the guideline index answers.
var retrievalTerms = []string{
	"por qué", "por que", "porque", "why",
	"protocolo", "protocol",
	"riesgo", "risk",
	"seguridad", "safety",
	"nsca", "cscca",
	"prevención", "prevencion",
	"lesión", "lesion",
	"rabdomiólisis", "rabdomiolisis",
	"golpe de calor",
	"hidratación", "hidratacion",
	"recuperación", "recuperacion",
	"guía", "guia", "manual", "evidencia",
	"qué es", "que es",
}

// metricTerms signal questions about stored athlete data.
var metricTerms = []string{
	"sueño", "sueno", "dormido", "dormir", "horas de sueño",
	"rpe", "fatiga",
	"hrv", "variabilidad",
	"volumen", "carga",
	"métricas", "metricas", "datos",
	"media", "promedio", "tendencia",
	"entrenamiento de", "últimos días", "ultimos dias",
}

// Classify inspects a user utterance and produces the dispatch tags for the
// turn. The rule is intentionally simple:
//   - an athlete reference or a metric term triggers a database lookup
//   - a science/protocol/risk term triggers passage retrieval
//   - red-flag patterns are detected independently and force the emergency
//     instructions into the prompt regardless of the other tags
func Classify(utterance string) Classification {
	text := strings.ToLower(utterance)

	c := Classification{
		RedFlags:  rules.DetectRedFlags(utterance),
		AthleteID: extractAthleteID(utterance),
	}

	lookup := c.AthleteID != "" || containsAny(text, metricTerms)
	retrieval := containsAny(text, retrievalTerms)

	switch {
	case lookup && retrieval:
		c.Intent = Both
	case lookup:
		c.Intent = Lookup
	case retrieval:
		c.Intent = Retrieval
	default:
		c.Intent = Neither
	}

	return c
}

// extractAthleteID finds the first athlete reference and normalizes it to
// the canonical database form "atleta_NN". Returns "" if none.
func extractAthleteID(utterance string) string {
	m := athleteRef.FindStringSubmatch(utterance)
	if m == nil {
		return ""
	}
	var n int
	fmt.Sscanf(m[1], "%d", &n)
	return fmt.Sprintf("atleta_%02d", n)
}

// NormalizeAthleteID converts free-form athlete references ("atleta 1",
// "Atleta_01", "1") to the canonical "atleta_NN" form. Returns "" when the
// input carries no usable reference.
func NormalizeAthleteID(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if id := extractAthleteID(ref); id != "" {
		return id
	}
	// Bare number: "1" or "07"
	if ok, _ := regexp.MatchString(`^\d{1,3}$`, ref); ok {
		var n int
		fmt.Sscanf(ref, "%d", &n)
		return fmt.Sprintf("atleta_%02d", n)
	}
	return ""
}

// containsAny checks if s contains any of the substrings.
func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
