package assistant

import (
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/kineticguard/kinetic/internal/intent"
	"github.com/kineticguard/kinetic/internal/knowledge"
	"github.com/kineticguard/kinetic/internal/log"
	"github.com/kineticguard/kinetic/internal/metrics"
)

// SearchGuidelinesInput is the model-facing input for guideline search.
type SearchGuidelinesInput struct {
	Query string `json:"query" jsonschema_description:"Pregunta o tema a buscar en los manuales NSCA/CSCCa"`
}

// AthleteMetricsInput is the model-facing input for biometric lookups.
type AthleteMetricsInput struct {
	AthleteID string `json:"athleteId" jsonschema_description:"Identificador del atleta, por ejemplo atleta_01 o 'atleta 1'"`
}

// RegisterTools defines the follow-up tools the model may call during the
// agentic loop: guideline search and athlete metrics lookup. The returned
// slice goes into Config.Tools.
func RegisterTools(g *genkit.Genkit, searcher PassageSearcher, reader MetricsReader, topK, windowDays int, logger log.Logger) []ai.Tool {
	searchTool := genkit.DefineTool(g, "search_guidelines",
		"Consulta los manuales de la NSCA y la CSCCa para obtener protocolos de recuperación, "+
			"prevención de lesiones y estándares de entrenamiento.",
		func(ctx *ai.ToolContext, in SearchGuidelinesInput) (string, error) {
			results, err := searcher.Search(ctx, in.Query, knowledge.WithTopK(topK))
			if err != nil {
				logger.Warn("tool guideline search failed", "error", err)
				return "La base de conocimiento no está disponible en este momento.", nil
			}
			if len(results) == 0 {
				return "No se encontraron pasajes relevantes en los manuales.", nil
			}
			passages := make([]string, len(results))
			for i, r := range results {
				passages[i] = r.Passage.Content
			}
			return strings.Join(passages, "\n\n"), nil
		})

	metricsTool := genkit.DefineTool(g, "athlete_metrics",
		"Obtiene los últimos días de carga de entrenamiento, HRV, sueño y fatiga (RPE) de un atleta.",
		func(ctx *ai.ToolContext, in AthleteMetricsInput) (string, error) {
			id := intent.NormalizeAthleteID(in.AthleteID)
			if id == "" {
				return fmt.Sprintf("No se reconoce el identificador %q; usa el formato atleta_01.", in.AthleteID), nil
			}
			records, err := reader.LatestWindow(ctx, id, windowDays)
			if err != nil {
				logger.Warn("tool metrics lookup failed", "athlete", id, "error", err)
				return fmt.Sprintf("No hay datos para el ID %q.", id), nil
			}
			return metrics.FormatTable(records), nil
		})

	return []ai.Tool{searchTool, metricsTool}
}
