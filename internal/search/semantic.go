package search

import (
	"context"

	"github.com/fortemi/matric/internal/archive"
	"github.com/fortemi/matric/internal/matricerr"
	"github.com/fortemi/matric/internal/provider"
)

// RunSemantic implements spec §4.5 step 5: embed query via the resolved
// embedding set's model (applying the asymmetric query prefix when the
// model profile calls for one), then run a cosine nearest-neighbour search
// restricted by cfg's filter and visibility rule, collapsing to one row
// per note.
func RunSemantic(ctx context.Context, tx archive.Queryer, backend provider.EmbeddingBackend, set *archive.EmbeddingSet, query string, cfg Config, limit int) ([]SearchHit, error) {
	profile := provider.EmbeddingProfileFor(set.ModelName)
	prefixed := profile.PrefixQuery(query)

	vectors, err := backend.Embed(ctx, []string{prefixed})
	if err != nil {
		return nil, matricerr.Inferencef(err, "embed search query")
	}
	if len(vectors) != 1 {
		return nil, matricerr.Internalf(nil, "embedding backend returned %d vectors for 1 input", len(vectors))
	}

	neighbors, err := archive.NewEmbeddingRepository().SearchNearest(
		ctx, tx, set.ID, vectors[0], filterOrTrue(cfg.FilterSQL), cfg.FilterParams, cfg.ExcludeArchived, limit,
	)
	if err != nil {
		return nil, err
	}

	repo := archive.NewNoteRepository()
	out := make([]SearchHit, 0, len(neighbors))
	for _, n := range neighbors {
		note, err := repo.Get(ctx, tx, n.NoteID, false)
		if err != nil {
			continue // note vanished between the ANN scan and this fetch; skip rather than fail the whole search
		}
		hit := SearchHit{
			NoteID:  n.NoteID,
			Score:   n.Similarity,
			Snippet: safeSnippet(note.Content),
			Tags:    note.Tags,
		}
		if note.Title != nil {
			hit.Title = *note.Title
		}
		out = append(out, hit)
	}
	return out, nil
}
