package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/scry-engine/internal/domain"
	"github.com/phrazzld/scry-engine/internal/generation"
	"github.com/phrazzld/scry-engine/internal/knowledge"
	"github.com/phrazzld/scry-engine/internal/platform/logger"
)

// Strategy is how a batch of cards was sourced.
type Strategy string

// Sourcing strategies.
const (
	StrategyCacheOnly    Strategy = "cache_only"
	StrategyHybrid       Strategy = "hybrid"
	StrategyGenerateOnly Strategy = "generate_only"
)

// Outcome is the result of one orchestration.
type Outcome struct {
	Strategy Strategy
	// Cards holds cached cards first, then generated ones.
	Cards          []*domain.CandidateCard
	CachedCount    int
	GeneratedCount int
	// Skipped counts model entries dropped for missing fields.
	Skipped int
}

// Orchestrator decides between knowledge hits and fresh generation.
type Orchestrator struct {
	source      knowledge.Source
	gen         generation.Generator
	prompts     *Prompts
	thresholds  knowledge.Thresholds
	resultLimit int
	logger      *slog.Logger
}

// NewOrchestrator creates an Orchestrator. A nil source behaves as
// knowledge.NoSource.
func NewOrchestrator(
	source knowledge.Source,
	gen generation.Generator,
	prompts *Prompts,
	thresholds knowledge.Thresholds,
	resultLimit int,
	l *slog.Logger,
) *Orchestrator {
	if gen == nil {
		panic("generator cannot be nil")
	}
	if source == nil {
		source = knowledge.NoSource{}
	}
	if prompts == nil {
		prompts = MustLoadPrompts()
	}
	if resultLimit <= 0 {
		resultLimit = knowledge.DefaultResultLimit
	}
	if l == nil {
		l = slog.Default()
	}
	return &Orchestrator{
		source:      source,
		gen:         gen,
		prompts:     prompts,
		thresholds:  thresholds,
		resultLimit: resultLimit,
		logger:      l.With(slog.String("component", "orchestrator")),
	}
}

// Produce returns opts.Count cards or fewer when the model under-delivers.
// Generation failures wrap domain.ErrUpstreamGeneration and unparseable
// output is a *ParseError.
func (o *Orchestrator) Produce(ctx context.Context, norm *Normalized, analysis *domain.ContentAnalysis, opts Options) (*Outcome, error) {
	log := logger.FromContextOrDefault(ctx, o.logger)
	count := opts.Count

	usable, rest := o.lookup(ctx, analysis, opts, count)

	if len(usable) >= count {
		out := &Outcome{Strategy: StrategyCacheOnly, CachedCount: count}
		for _, sn := range usable[:count] {
			out.Cards = append(out.Cards, CardFromSnippet(sn, analysis))
		}
		log.InfoContext(ctx, "cards served from knowledge cache", slog.Int("count", count))
		return out, nil
	}

	out := &Outcome{Strategy: StrategyGenerateOnly}
	enrich := rest
	if len(usable) > 0 {
		out.Strategy = StrategyHybrid
		enrich = usable
		for _, sn := range usable {
			out.Cards = append(out.Cards, CardFromSnippet(sn, analysis))
		}
		out.CachedCount = len(usable)
	}

	shortfall := count - len(usable)
	parsed, err := o.generate(ctx, norm, analysis, opts, shortfall, enrich, out.Cards)
	if err != nil {
		return nil, err
	}

	generated := Synthesize(parsed, analysis)
	if len(generated) > shortfall {
		generated = generated[:shortfall]
	}
	out.Cards = append(out.Cards, generated...)
	out.GeneratedCount = len(generated)
	out.Skipped = parsed.Skipped

	log.InfoContext(ctx, "cards produced",
		slog.String("strategy", string(out.Strategy)),
		slog.Int("cached", out.CachedCount),
		slog.Int("generated", out.GeneratedCount),
		slog.Int("skipped", out.Skipped))
	return out, nil
}

func (o *Orchestrator) lookup(ctx context.Context, analysis *domain.ContentAnalysis, opts Options, count int) (usable, rest []knowledge.Snippet) {
	log := logger.FromContextOrDefault(ctx, o.logger)

	limit := o.resultLimit
	if count > limit {
		limit = count
	}
	snippets, err := o.source.Search(ctx, knowledge.Query{
		Text:    strings.Join(analysis.KeyTopics, " "),
		Subject: opts.SubjectHint(analysis),
		Limit:   limit,
	})
	if err != nil {
		log.WarnContext(ctx, "knowledge lookup failed, generating instead", slog.String("error", err.Error()))
		return nil, nil
	}
	return o.thresholds.Partition(snippets)
}

func (o *Orchestrator) generate(
	ctx context.Context,
	norm *Normalized,
	analysis *domain.ContentAnalysis,
	opts Options,
	n int,
	enrich []knowledge.Snippet,
	existing []*domain.CandidateCard,
) (ParsedCards, error) {
	data := FlashcardPromptData{
		Count:              n,
		Difficulty:         string(opts.Difficulty),
		Subject:            opts.SubjectHint(analysis),
		KeyTopics:          analysis.KeyTopics,
		LearningObjectives: analysis.LearningObjectives,
		FocusAreas:         opts.FocusAreas,
		Text:               norm.Text,
	}
	for _, sn := range enrich {
		if c := strings.TrimSpace(sn.Context); c != "" {
			data.Context = append(data.Context, c)
		}
	}
	for _, c := range existing {
		data.Avoid = append(data.Avoid, c.Question)
	}

	prompt, err := o.prompts.Render(PromptFlashcards, data)
	if err != nil {
		return ParsedCards{}, err
	}

	raw, err := o.gen.Generate(ctx, generation.Request{
		Prompt:     prompt,
		TaskType:   generation.TaskTypeFlashcards,
		Complexity: generation.ComplexityComplex,
		JSON:       true,
	})
	if err != nil {
		return ParsedCards{}, fmt.Errorf("%w: %w", domain.ErrUpstreamGeneration, err)
	}
	return ParseCards(raw)
}
