// Package assistant orchestrates one conversational turn: it classifies
// the coach's question, gathers guideline passages and athlete metrics as
// needed, injects the safety rules and hands everything to the hosted
// model via a Dotprompt.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/kineticguard/kinetic/internal/intent"
	"github.com/kineticguard/kinetic/internal/knowledge"
	"github.com/kineticguard/kinetic/internal/log"
	"github.com/kineticguard/kinetic/internal/metrics"
	"github.com/kineticguard/kinetic/internal/rules"
	"github.com/kineticguard/kinetic/internal/session"
)

const (
	// PromptName names the Dotprompt file (prompts/kinetic.prompt). The
	// model is configured there, not in Config.
	PromptName = "kinetic"

	// FallbackAnswer covers the rare empty model response.
	FallbackAnswer = "Lo siento, no he podido generar una respuesta. ¿Puedes reformular la pregunta?"

	// retrievalTimeout bounds the guideline search so slow vector queries
	// cannot stall the whole turn.
	retrievalTimeout = 5 * time.Second

	// lookupTimeout bounds the athlete metrics query.
	lookupTimeout = 3 * time.Second
)

// PassageSearcher is the knowledge surface the assistant needs.
type PassageSearcher interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// MetricsReader is the biometrics surface the assistant needs.
type MetricsReader interface {
	LatestWindow(ctx context.Context, athleteID string, n int) ([]metrics.Record, error)
	MaxVolume(ctx context.Context, athleteID string) (int, error)
}

// StreamCallback receives response chunks as the model emits them.
type StreamCallback = ai.ModelStreamCallback

// Response is the result of one turn.
type Response struct {
	FinalText string
	Passages  []knowledge.Result // guideline context the answer drew on
	RedFlags  []rules.RedFlag
	Intent    intent.Intent
	Degraded  bool // retrieval was unavailable this turn
}

// Config wires an Assistant. Genkit, Knowledge, Metrics and Logger are
// required; everything else has defaults.
type Config struct {
	Genkit    *genkit.Genkit
	Knowledge PassageSearcher
	Metrics   MetricsReader
	Logger    log.Logger
	Tools     []ai.Tool // pre-registered follow-up tools
	Model     ai.Model  // optional override of the prompt's model (tests)

	Ruleset          rules.Ruleset
	RetrievalTopK    int // default 3
	LookupWindowDays int // default 7
	MaxTurns         int // agentic loop bound, default 5

	Retry          RetryConfig
	CircuitBreaker CircuitBreakerConfig
	RateLimiter    *rate.Limiter // nil = 10 req/s, burst 30
}

func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Knowledge == nil {
		return errors.New("knowledge searcher is required")
	}
	if cfg.Metrics == nil {
		return errors.New("metrics reader is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Assistant answers coaching questions. All configuration is captured at
// construction; the struct is safe for concurrent use.
type Assistant struct {
	g         *genkit.Genkit
	knowledge PassageSearcher
	metrics   MetricsReader
	logger    log.Logger
	prompt    ai.Prompt
	model     ai.Model
	toolRefs  []ai.ToolRef

	ruleset    rules.Ruleset
	topK       int
	windowDays int
	maxTurns   int

	retryConfig    RetryConfig
	circuitBreaker *CircuitBreaker
	rateLimiter    *rate.Limiter
}

// New creates an Assistant from the config.
func New(cfg Config) (*Assistant, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	topK := cfg.RetrievalTopK
	if topK <= 0 {
		topK = 3
	}
	windowDays := cfg.LookupWindowDays
	if windowDays <= 0 {
		windowDays = 7
	}
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 5
	}
	retryConfig := cfg.Retry
	if retryConfig.MaxRetries == 0 {
		retryConfig = DefaultRetryConfig()
	}
	if retryConfig.AttemptTimeout <= 0 {
		retryConfig.AttemptTimeout = DefaultRetryConfig().AttemptTimeout
	}
	rl := cfg.RateLimiter
	if rl == nil {
		rl = rate.NewLimiter(10, 30)
	}
	ruleset := cfg.Ruleset
	if ruleset.Version == "" {
		ruleset = rules.Default()
	}

	toolRefs := make([]ai.ToolRef, len(cfg.Tools))
	for i, t := range cfg.Tools {
		toolRefs[i] = t
	}

	a := &Assistant{
		g:              cfg.Genkit,
		knowledge:      cfg.Knowledge,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
		model:          cfg.Model,
		toolRefs:       toolRefs,
		ruleset:        ruleset,
		topK:           topK,
		windowDays:     windowDays,
		maxTurns:       maxTurns,
		retryConfig:    retryConfig,
		circuitBreaker: NewCircuitBreaker(cfg.CircuitBreaker),
		rateLimiter:    rl,
	}

	a.prompt = genkit.LookupPrompt(a.g, PromptName)
	if a.prompt == nil {
		return nil, fmt.Errorf("dotprompt %q not found: check the prompts directory", PromptName)
	}

	a.logger.Info("assistant initialized",
		"rules", ruleset.Version, "topK", topK, "window_days", windowDays)
	return a, nil
}

// Respond handles one turn. The session history is read for context and
// updated with the exchange on success.
func (a *Assistant) Respond(ctx context.Context, sess *session.Session, input string) (*Response, error) {
	return a.RespondStream(ctx, sess, input, nil)
}

// RespondStream is Respond with chunk streaming when callback is non-nil.
func (a *Assistant) RespondStream(ctx context.Context, sess *session.Session, input string, callback StreamCallback) (*Response, error) {
	cls := intent.Classify(input)
	a.logger.Debug("turn classified",
		"intent", cls.Intent.String(),
		"athlete", cls.AthleteID,
		"red_flags", len(cls.RedFlags))

	var notices []string

	passages, degraded := a.retrievePassages(ctx, input, cls)
	switch {
	case degraded:
		notices = append(notices,
			"La base de conocimiento no está disponible; responde solo con las reglas de seguridad e indícalo al usuario.")
	case cls.NeedsRetrieval() && len(passages) == 0:
		notices = append(notices,
			"La búsqueda no encontró literatura de referencia para esta pregunta; dile al usuario que no hay pasajes de respaldo y apóyate solo en las reglas de seguridad.")
	}

	metricsTable, lookupNotice := a.lookupMetrics(ctx, cls)
	if lookupNotice != "" {
		notices = append(notices, lookupNotice)
	}

	promptInput := map[string]any{
		"rules":   a.ruleset.PromptSection(),
		"metrics": metricsTable,
		"notices": strings.Join(notices, "\n"),
	}
	if len(cls.RedFlags) > 0 {
		promptInput["emergency"] = rules.EmergencyInstructions
	}

	messages := deepCopyMessages(sess.History.Messages())
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(input)))

	opts := []ai.PromptExecuteOption{
		ai.WithInput(promptInput),
		ai.WithMessagesFn(func(_ context.Context, _ any) ([]*ai.Message, error) {
			return messages, nil
		}),
		ai.WithMaxTurns(a.maxTurns),
	}
	if len(a.toolRefs) > 0 {
		opts = append(opts, ai.WithTools(a.toolRefs...))
	}
	if a.model != nil {
		opts = append(opts, ai.WithModel(a.model))
	}
	if len(passages) > 0 {
		docs := make([]*ai.Document, len(passages))
		for i, r := range passages {
			meta := map[string]any{"similarity": r.Similarity}
			for k, v := range r.Passage.Metadata {
				meta[k] = v
			}
			docs[i] = ai.DocumentFromText(r.Passage.Content, meta)
		}
		opts = append(opts, ai.WithDocs(docs...))
	}
	if callback != nil {
		opts = append(opts, ai.WithStreaming(callback))
	}

	if err := a.circuitBreaker.Allow(); err != nil {
		a.logger.Warn("model call rejected",
			"state", a.circuitBreaker.State().String())
		return nil, fmt.Errorf("service unavailable: %w", err)
	}

	resp, err := a.executeWithRetry(ctx, opts)
	if err != nil {
		a.circuitBreaker.Failure()
		return nil, err
	}
	a.circuitBreaker.Success()

	answer := resp.Text()
	if strings.TrimSpace(answer) == "" {
		a.logger.Warn("model returned empty response", "session", sess.ID)
		answer = FallbackAnswer
	}

	sess.History.AddTurn(input, answer)

	return &Response{
		FinalText: answer,
		Passages:  passages,
		RedFlags:  cls.RedFlags,
		Intent:    cls.Intent,
		Degraded:  degraded,
	}, nil
}

// retrievePassages fetches guideline context. Failures degrade the turn
// instead of aborting it: the safety rules are always in the prompt.
func (a *Assistant) retrievePassages(ctx context.Context, query string, cls intent.Classification) ([]knowledge.Result, bool) {
	if !cls.NeedsRetrieval() {
		return nil, false
	}

	results, err := a.knowledge.Search(ctx, query,
		knowledge.WithTopK(a.topK),
		knowledge.WithTimeout(retrievalTimeout))
	if err != nil {
		if errors.Is(err, knowledge.ErrRetrievalUnavailable) {
			a.logger.Warn("guideline retrieval unavailable, degrading", "error", err)
			return nil, true
		}
		a.logger.Warn("guideline retrieval failed, degrading", "error", err)
		return nil, true
	}
	a.logger.Debug("guideline passages retrieved", "count", len(results))
	return results, false
}

// lookupMetrics fetches the athlete's recent rows and renders them for
// the prompt. A missing athlete becomes a clarification notice; the model
// asks the coach instead of inventing data.
func (a *Assistant) lookupMetrics(ctx context.Context, cls intent.Classification) (string, string) {
	if !cls.NeedsLookup() {
		return "", ""
	}
	if cls.AthleteID == "" {
		return "", "El usuario pidió datos sin identificar al atleta; pregunta a cuál se refiere (atleta_01, atleta_02...)."
	}

	lookupCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	records, err := a.metrics.LatestWindow(lookupCtx, cls.AthleteID, a.windowDays)
	if err != nil {
		if errors.Is(err, metrics.ErrAthleteNotFound) {
			return "", fmt.Sprintf(
				"No hay datos para %q; dile al usuario que ese atleta no existe en la base y pide que confirme el ID.",
				cls.AthleteID)
		}
		a.logger.Warn("metrics lookup failed", "athlete", cls.AthleteID, "error", err)
		return "", "La base de métricas no respondió; responde sin datos individuales e indícalo."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Últimos %d días de %s:\n", len(records), cls.AthleteID)
	sb.WriteString(metrics.FormatTable(records))

	if max, err := a.metrics.MaxVolume(lookupCtx, cls.AthleteID); err == nil {
		fmt.Fprintf(&sb, "Volumen máximo histórico: %d\n", max)
	}

	for _, alert := range a.ruleset.Evaluate(toRuleDays(records)) {
		fmt.Fprintf(&sb, "ALERTA [%s]: %s\n", alert.Code, alert.Message)
	}
	return sb.String(), ""
}

// toRuleDays converts storage rows to the rule engine's day type.
func toRuleDays(records []metrics.Record) []rules.DayMetrics {
	days := make([]rules.DayMetrics, len(records))
	for i, r := range records {
		days[i] = rules.DayMetrics{
			AthleteID:  r.AthleteID,
			Date:       r.Date,
			Volume:     float64(r.TrainingLoad),
			HRV:        r.HRVMs,
			SleepHours: r.SleepHours,
			RPE:        r.RPE,
		}
	}
	return days
}

// deepCopyMessages copies every message so concurrent turns cannot race
// on shared Content slices during prompt rendering.
func deepCopyMessages(in []*ai.Message) []*ai.Message {
	out := make([]*ai.Message, len(in))
	for i, msg := range in {
		if msg == nil {
			continue
		}
		cp := *msg
		cp.Content = make([]*ai.Part, len(msg.Content))
		copy(cp.Content, msg.Content)
		out[i] = &cp
	}
	return out
}
