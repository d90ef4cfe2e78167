package search

import (
	"context"

	"github.com/fortemi/matric/internal/archive"
	"github.com/fortemi/matric/internal/matriclog"
	"github.com/fortemi/matric/internal/matricerr"
	"github.com/fortemi/matric/internal/provider"
)

// Service runs the full C5 hybrid_search operation inside one archive's
// schema-scoped transaction.
type Service struct {
	providers *provider.Registry
	log       *matriclog.Context
}

// NewService wires a hybrid search service over a provider registry used
// to resolve the embedding backend for the semantic leg.
func NewService(providers *provider.Registry, log *matriclog.Context) *Service {
	return &Service{providers: providers, log: log}
}

// HybridSearch implements spec §4.5's public operation: hybrid_search(query,
// limit, config) -> [SearchHit]. tx must already be scoped to the target
// archive's schema (via archive.SchemaContext.Query/Execute).
func (s *Service) HybridSearch(ctx context.Context, tx archive.Queryer, query string, cfg Config) ([]SearchHit, error) {
	if cfg.Limit <= 0 {
		return nil, matricerr.InvalidInputf("hybrid_search: limit must be positive")
	}
	if cfg.FilterSQL == "" {
		cfg.FilterSQL = "TRUE"
	}

	// Candidate pools are over-fetched ahead of fusion so RRF has enough
	// signal per list even when the final result is truncated hard.
	candidatePoolSize := cfg.Limit * 4

	det := DetectScript(query)
	strategy := SelectStrategy(cfg.DetectScript, det, cfg.BigramAvailable)

	var rankedLists [][]SearchHit

	lexicalHits, err := RunLexical(ctx, tx, strategy, query, cfg, candidatePoolSize)
	if err != nil {
		s.log.WithError(err).Warn("hybrid_search: lexical leg failed, falling back to surviving lists")
	} else {
		rankedLists = append(rankedLists, lexicalHits)
	}

	embeddingSetRepo := archive.NewEmbeddingSetRepository()
	var set *archive.EmbeddingSet
	if cfg.EmbeddingSetSlug != "" {
		set, err = embeddingSetRepo.GetBySlug(ctx, tx, cfg.EmbeddingSetSlug)
	} else {
		set, err = embeddingSetRepo.GetDefault(ctx, tx)
	}
	switch {
	case err != nil:
		s.log.WithError(err).Warn("hybrid_search: no embedding set resolved, falling back to lexical-only")
	case set == nil:
		s.log.Warn("hybrid_search: no embedding set configured, falling back to lexical-only")
	default:
		backend, backendErr := s.providers.ResolveEmbedding(set.ModelName)
		if backendErr != nil {
			s.log.WithError(backendErr).With("model", set.ModelName).Warn("hybrid_search: embedding backend unresolvable, falling back to lexical-only")
			break
		}
		semanticHits, semErr := RunSemantic(ctx, tx, backend, set, query, cfg, candidatePoolSize)
		if semErr != nil {
			s.log.WithError(semErr).Warn("hybrid_search: semantic leg failed, falling back to lexical-only")
			break
		}
		rankedLists = append(rankedLists, semanticHits)
	}
	// A missing embedding set or an unresolvable embedding backend degrades
	// to lexical-only search rather than failing hybrid_search outright:
	// semantic search is an enrichment, not a correctness requirement.

	return Fuse(rankedLists, cfg.Limit), nil
}
