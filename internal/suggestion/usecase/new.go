package usecase

import (
	"sync"
	"time"

	"talk-support/internal/suggestion"
	"talk-support/internal/suggestion/repository"
	pkgLog "talk-support/pkg/log"
)

// Config carries the tunable constants of the engine. Zero values are
// replaced by the defaults below.
type Config struct {
	EMAAlpha         float64
	HistoryThreshold int
	HistoryKeep      int
	SummaryMaxChars  int

	WeightProfile float64
	WeightContext float64
	WeightSafety  float64
	SuggestionCap int

	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration
}

const (
	defaultEMAAlpha         = 0.3
	defaultHistoryThreshold = 8
	defaultHistoryKeep      = 5
	defaultSummaryMaxChars  = 2000
	defaultWeightProfile    = 0.5
	defaultWeightContext    = 0.4
	defaultWeightSafety     = 0.1
	defaultSuggestionCap    = 3
	defaultEmbedTimeout     = 5 * time.Second
	defaultGenerateTimeout  = 15 * time.Second
)

func (c Config) withDefaults() Config {
	if c.EMAAlpha <= 0 || c.EMAAlpha > 1 {
		c.EMAAlpha = defaultEMAAlpha
	}
	if c.HistoryThreshold <= 0 {
		c.HistoryThreshold = defaultHistoryThreshold
	}
	if c.HistoryKeep <= 0 {
		c.HistoryKeep = defaultHistoryKeep
	}
	if c.SummaryMaxChars <= 0 {
		c.SummaryMaxChars = defaultSummaryMaxChars
	}
	if c.WeightProfile <= 0 {
		c.WeightProfile = defaultWeightProfile
	}
	if c.WeightContext <= 0 {
		c.WeightContext = defaultWeightContext
	}
	if c.WeightSafety <= 0 {
		c.WeightSafety = defaultWeightSafety
	}
	if c.SuggestionCap <= 0 {
		c.SuggestionCap = defaultSuggestionCap
	}
	if c.EmbedTimeout <= 0 {
		c.EmbedTimeout = defaultEmbedTimeout
	}
	if c.GenerateTimeout <= 0 {
		c.GenerateTimeout = defaultGenerateTimeout
	}
	return c
}

type implUseCase struct {
	l        pkgLog.Logger
	repo     repository.SessionRepository
	embedder suggestion.EmbeddingPort
	llm      suggestion.GenerationPort
	safety   suggestion.SafetyScorer
	cfg      Config

	// handles tracks the in-flight turn per session. Guarded by mu.
	mu      sync.Mutex
	handles map[string]*sessionHandle

	// protoMu guards lazy embedding of the category prototypes. A
	// failed build is retried on the next turn.
	protoMu sync.Mutex
	protos  map[string][]float32
}

// New creates a new suggestion UseCase instance.
func New(
	l pkgLog.Logger,
	repo repository.SessionRepository,
	embedder suggestion.EmbeddingPort,
	llm suggestion.GenerationPort,
	safety suggestion.SafetyScorer,
	cfg Config,
) *implUseCase {
	if safety == nil {
		safety = constantSafety{}
	}
	return &implUseCase{
		l:        l,
		repo:     repo,
		embedder: embedder,
		llm:      llm,
		safety:   safety,
		cfg:      cfg.withDefaults(),
		handles:  make(map[string]*sessionHandle),
	}
}
