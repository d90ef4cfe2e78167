package archive

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/fortemi/matric/internal/matricerr"
)

// DocumentCategory classifies a document type for grouping in listings.
type DocumentCategory string

// ChunkingStrategy names how a note's content is split for embedding.
type ChunkingStrategy string

const (
	ChunkingSemantic  ChunkingStrategy = "semantic"
	ChunkingFixed     ChunkingStrategy = "fixed"
	ChunkingParagraph ChunkingStrategy = "paragraph"
	ChunkingCode      ChunkingStrategy = "code"
)

// ExtractionStrategy names which C7 adapter family applies to this type.
type ExtractionStrategy string

const (
	ExtractionTextNative ExtractionStrategy = "text_native"
	ExtractionSubprocess ExtractionStrategy = "subprocess"
	ExtractionOCR        ExtractionStrategy = "ocr"
)

// Detection confidence constants (spec §4.4): filename and MIME matches are
// authoritative; extension matches are strong but not unique; content
// pattern matches are a last resort before the plaintext default.
const (
	DetectConfidenceFilename  = 1.0
	DetectConfidenceMIME      = 0.95
	DetectConfidenceExtension = 0.85
	DetectConfidenceContent   = 0.6
	DetectConfidenceDefault   = 0.1
)

// DocumentType is the full row for document_type.
type DocumentType struct {
	ID                   string
	Name                 string
	DisplayName          string
	Category             DocumentCategory
	Description          *string
	FileExtensions       []string
	MimeTypes            []string
	MagicPatterns        []string
	FilenamePatterns     []string
	ChunkingStrategy     ChunkingStrategy
	ChunkSizeDefault     *int
	ChunkOverlapDefault  *int
	TreeSitterLanguage   *string
	ExtractionStrategy   ExtractionStrategy
	RequiresAttachment   bool
	IsSystem             bool
	IsActive             bool
}

// DocumentTypeSummary is the listing projection (spec §4.4), a subset of
// DocumentType's fields sufficient for a picker UI.
type DocumentTypeSummary struct {
	ID                 string
	Name               string
	DisplayName        string
	Category           DocumentCategory
	Description        *string
	ChunkingStrategy   ChunkingStrategy
	TreeSitterLanguage *string
	ExtractionStrategy ExtractionStrategy
	RequiresAttachment bool
	IsSystem           bool
	IsActive           bool
}

func (t DocumentType) summary() DocumentTypeSummary {
	return DocumentTypeSummary{
		ID:                 t.ID,
		Name:               t.Name,
		DisplayName:        t.DisplayName,
		Category:           t.Category,
		Description:        t.Description,
		ChunkingStrategy:   t.ChunkingStrategy,
		TreeSitterLanguage: t.TreeSitterLanguage,
		ExtractionStrategy: t.ExtractionStrategy,
		RequiresAttachment: t.RequiresAttachment,
		IsSystem:           t.IsSystem,
		IsActive:           t.IsActive,
	}
}

// CreateDocumentTypeRequest is the input to DocumentTypeRepository.Create.
type CreateDocumentTypeRequest struct {
	Name                string
	DisplayName         *string
	Category            DocumentCategory
	Description         *string
	FileExtensions      []string
	MimeTypes           []string
	MagicPatterns       []string
	FilenamePatterns    []string
	ChunkingStrategy    ChunkingStrategy
	ChunkSizeDefault    *int
	ChunkOverlapDefault *int
	TreeSitterLanguage  *string
}

// UpdateDocumentTypeRequest carries only the fields being changed; nil
// fields leave the stored value untouched.
type UpdateDocumentTypeRequest struct {
	DisplayName         *string
	Description         *string
	FileExtensions      []string
	ChunkingStrategy    *ChunkingStrategy
	ChunkSizeDefault    *int
	ChunkOverlapDefault *int
	IsActive            *bool
}

// DetectDocumentTypeResult is Detect's outcome.
type DetectDocumentTypeResult struct {
	DocumentType     DocumentTypeSummary
	Confidence       float64
	DetectionMethod  string
}

// DocumentTypeRepository is the C4 façade over document_type, plus its
// filename/MIME/extension/content-based detection cascade (spec §4.4).
type DocumentTypeRepository struct{}

// NewDocumentTypeRepository returns a stateless façade.
func NewDocumentTypeRepository() *DocumentTypeRepository { return &DocumentTypeRepository{} }

const documentTypeSummaryColumns = `
	id, name, display_name, category, description,
	chunking_strategy, tree_sitter_language,
	extraction_strategy, requires_attachment, is_system, is_active
`

func scanDocumentTypeSummary(row pgx.Row) (DocumentTypeSummary, error) {
	var s DocumentTypeSummary
	err := row.Scan(
		&s.ID, &s.Name, &s.DisplayName, &s.Category, &s.Description,
		&s.ChunkingStrategy, &s.TreeSitterLanguage,
		&s.ExtractionStrategy, &s.RequiresAttachment, &s.IsSystem, &s.IsActive,
	)
	return s, err
}

// List returns every active document type, grouped by category.
func (r *DocumentTypeRepository) List(ctx context.Context, tx Queryer) ([]DocumentTypeSummary, error) {
	rows, err := tx.Query(ctx, `SELECT `+documentTypeSummaryColumns+` FROM document_type WHERE is_active = TRUE ORDER BY category, name`)
	if err != nil {
		return nil, matricerr.Databasef(err, "list document types")
	}
	defer rows.Close()
	return collectSummaries(rows)
}

// ListByCategory restricts List to one category.
func (r *DocumentTypeRepository) ListByCategory(ctx context.Context, tx Queryer, category DocumentCategory) ([]DocumentTypeSummary, error) {
	rows, err := tx.Query(ctx, `SELECT `+documentTypeSummaryColumns+` FROM document_type WHERE is_active = TRUE AND category = $1 ORDER BY name`, category)
	if err != nil {
		return nil, matricerr.Databasef(err, "list document types by category %s", category)
	}
	defer rows.Close()
	return collectSummaries(rows)
}

func collectSummaries(rows pgx.Rows) ([]DocumentTypeSummary, error) {
	var out []DocumentTypeSummary
	for rows.Next() {
		s, err := scanDocumentTypeSummary(rows)
		if err != nil {
			return nil, matricerr.Databasef(err, "scan document type")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, matricerr.Databasef(err, "iterate document types")
	}
	return out, nil
}

const documentTypeColumns = `
	id, name, display_name, category, description,
	file_extensions, mime_types, magic_patterns, filename_patterns,
	chunking_strategy, chunk_size_default, chunk_overlap_default,
	tree_sitter_language, extraction_strategy, requires_attachment,
	is_system, is_active
`

func scanDocumentType(row pgx.Row) (*DocumentType, error) {
	var t DocumentType
	err := row.Scan(
		&t.ID, &t.Name, &t.DisplayName, &t.Category, &t.Description,
		&t.FileExtensions, &t.MimeTypes, &t.MagicPatterns, &t.FilenamePatterns,
		&t.ChunkingStrategy, &t.ChunkSizeDefault, &t.ChunkOverlapDefault,
		&t.TreeSitterLanguage, &t.ExtractionStrategy, &t.RequiresAttachment,
		&t.IsSystem, &t.IsActive,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// Get fetches one document type by id.
func (r *DocumentTypeRepository) Get(ctx context.Context, tx Queryer, id string) (*DocumentType, error) {
	t, err := scanDocumentType(tx.QueryRow(ctx, `SELECT `+documentTypeColumns+` FROM document_type WHERE id = $1`, id))
	if err != nil {
		return nil, matricerr.Databasef(err, "get document type %s", id)
	}
	if t == nil {
		return nil, matricerr.NotFoundf("document type not found: %s", id)
	}
	return t, nil
}

// GetByName fetches one document type by its unique name, or nil if none
// matches (callers needing a NotFound error should check for nil).
func (r *DocumentTypeRepository) GetByName(ctx context.Context, tx Queryer, name string) (*DocumentType, error) {
	t, err := scanDocumentType(tx.QueryRow(ctx, `SELECT `+documentTypeColumns+` FROM document_type WHERE name = $1`, name))
	if err != nil {
		return nil, matricerr.Databasef(err, "get document type by name %s", name)
	}
	return t, nil
}

func (r *DocumentTypeRepository) getByExtension(ctx context.Context, tx Queryer, extension string) (*DocumentType, error) {
	return scanDocumentType(tx.QueryRow(ctx, `
		SELECT `+documentTypeColumns+`
		FROM document_type
		WHERE is_active = TRUE AND $1 = ANY(file_extensions)
		ORDER BY
			(CASE WHEN filename_patterns IS NULL OR array_length(filename_patterns, 1) IS NULL THEN 0 ELSE 1 END),
			array_length(file_extensions, 1),
			name
		LIMIT 1
	`, extension))
}

func (r *DocumentTypeRepository) getByFilename(ctx context.Context, tx Queryer, filename string) (*DocumentType, error) {
	return scanDocumentType(tx.QueryRow(ctx, `
		SELECT `+documentTypeColumns+`
		FROM document_type
		WHERE is_active = TRUE AND $1 = ANY(filename_patterns)
		LIMIT 1
	`, filename))
}

func (r *DocumentTypeRepository) getByMimeType(ctx context.Context, tx Queryer, mimeType string) (*DocumentType, error) {
	return scanDocumentType(tx.QueryRow(ctx, `
		SELECT `+documentTypeColumns+`
		FROM document_type
		WHERE is_active = TRUE AND $1 = ANY(mime_types)
		ORDER BY
			(CASE WHEN filename_patterns IS NULL OR array_length(filename_patterns, 1) IS NULL THEN 0 ELSE 1 END),
			array_length(mime_types, 1),
			name
		LIMIT 1
	`, mimeType))
}

// detectByContent scores every type with non-empty magic_patterns by how
// many of its patterns occur in text, and returns the best-scoring type
// (score > 0), breaking ties by name for determinism.
func (r *DocumentTypeRepository) detectByContent(ctx context.Context, tx Queryer, text string) (*DetectDocumentTypeResult, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+documentTypeSummaryColumns+`, magic_patterns
		FROM document_type
		WHERE is_active = TRUE AND array_length(magic_patterns, 1) > 0
		ORDER BY name
	`)
	if err != nil {
		return nil, matricerr.Databasef(err, "detect document type by content")
	}
	defer rows.Close()

	var best DocumentTypeSummary
	bestScore := 0
	found := false
	for rows.Next() {
		var s DocumentTypeSummary
		var patterns []string
		if err := rows.Scan(
			&s.ID, &s.Name, &s.DisplayName, &s.Category, &s.Description,
			&s.ChunkingStrategy, &s.TreeSitterLanguage,
			&s.ExtractionStrategy, &s.RequiresAttachment, &s.IsSystem, &s.IsActive,
			&patterns,
		); err != nil {
			return nil, matricerr.Databasef(err, "scan content-pattern candidate")
		}
		score := scoreMagicPatterns(patterns, text)
		if score > bestScore {
			bestScore = score
			best = s
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, matricerr.Databasef(err, "iterate content-pattern candidates")
	}
	if !found {
		return nil, nil
	}
	return &DetectDocumentTypeResult{DocumentType: best, Confidence: DetectConfidenceContent, DetectionMethod: "content_pattern"}, nil
}

// Detect classifies a note's likely document type from a filename, its
// content, and/or a MIME type (spec §4.4), trying progressively weaker
// signals and falling back to "plaintext". Extension match is checked
// before content patterns: file extensions like .py/.rs/.go are
// authoritative, whereas content-pattern heuristics can misfire on code
// that happens to contain another language's idioms.
func (r *DocumentTypeRepository) Detect(ctx context.Context, tx Queryer, filename, content, mimeType *string) (*DetectDocumentTypeResult, error) {
	if filename != nil {
		if t, err := r.getByFilename(ctx, tx, *filename); err != nil {
			return nil, matricerr.Databasef(err, "detect by filename")
		} else if t != nil {
			return &DetectDocumentTypeResult{DocumentType: t.summary(), Confidence: DetectConfidenceFilename, DetectionMethod: "filename_pattern"}, nil
		}
	}

	if mimeType != nil {
		if t, err := r.getByMimeType(ctx, tx, *mimeType); err != nil {
			return nil, matricerr.Databasef(err, "detect by mime type")
		} else if t != nil {
			return &DetectDocumentTypeResult{DocumentType: t.summary(), Confidence: DetectConfidenceMIME, DetectionMethod: "mime_type"}, nil
		}
	}

	if filename != nil {
		if ext := filepath.Ext(*filename); ext != "" {
			if t, err := r.getByExtension(ctx, tx, strings.ToLower(ext)); err != nil {
				return nil, matricerr.Databasef(err, "detect by extension")
			} else if t != nil {
				return &DetectDocumentTypeResult{DocumentType: t.summary(), Confidence: DetectConfidenceExtension, DetectionMethod: "file_extension"}, nil
			}
		}
	}

	if content != nil {
		if result, err := r.detectByContent(ctx, tx, *content); err != nil {
			return nil, err
		} else if result != nil {
			return result, nil
		}
	}

	if t, err := r.GetByName(ctx, tx, "plaintext"); err != nil {
		return nil, err
	} else if t != nil {
		return &DetectDocumentTypeResult{DocumentType: t.summary(), Confidence: DetectConfidenceDefault, DetectionMethod: "default"}, nil
	}

	return nil, nil
}

// Create inserts a new, non-system document type under the caller-supplied id.
func (r *DocumentTypeRepository) Create(ctx context.Context, tx Queryer, id string, req CreateDocumentTypeRequest) error {
	displayName := ""
	if req.DisplayName != nil {
		displayName = *req.DisplayName
	} else {
		displayName = titleCaseFromSlug(req.Name)
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO document_type (
			id, name, display_name, category, description,
			file_extensions, mime_types, magic_patterns, filename_patterns,
			chunking_strategy, chunk_size_default, chunk_overlap_default,
			tree_sitter_language, is_system, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, FALSE, TRUE)
	`,
		id, req.Name, displayName, req.Category, req.Description,
		req.FileExtensions, req.MimeTypes, req.MagicPatterns, req.FilenamePatterns,
		req.ChunkingStrategy, req.ChunkSizeDefault, req.ChunkOverlapDefault, req.TreeSitterLanguage,
	)
	if err != nil {
		return matricerr.Databasef(err, "create document type %s", req.Name)
	}
	return nil
}

// scoreMagicPatterns counts how many of patterns occur in text, used to
// rank content-pattern detection candidates by specificity rather than
// first-match-wins.
func scoreMagicPatterns(patterns []string, text string) int {
	score := 0
	for _, p := range patterns {
		if strings.Contains(text, p) {
			score++
		}
	}
	return score
}

// titleCaseFromSlug turns "my-doc-type" into "My Doc Type".
func titleCaseFromSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Update mutates a non-system document type's editable fields. System
// types cannot be modified.
func (r *DocumentTypeRepository) Update(ctx context.Context, tx Queryer, name string, req UpdateDocumentTypeRequest) error {
	existing, err := r.GetByName(ctx, tx, name)
	if err != nil {
		return err
	}
	if existing == nil {
		return matricerr.NotFoundf("document type not found: %s", name)
	}
	if existing.IsSystem {
		return matricerr.InvalidInputf("cannot modify system document type %q", name)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE document_type SET
			display_name = COALESCE($2, display_name),
			description = COALESCE($3, description),
			file_extensions = COALESCE($4, file_extensions),
			chunking_strategy = COALESCE($5, chunking_strategy),
			chunk_size_default = COALESCE($6, chunk_size_default),
			chunk_overlap_default = COALESCE($7, chunk_overlap_default),
			is_active = COALESCE($8, is_active),
			updated_at = now()
		WHERE name = $1 AND is_system = FALSE
	`, name, req.DisplayName, req.Description, req.FileExtensions, req.ChunkingStrategy,
		req.ChunkSizeDefault, req.ChunkOverlapDefault, req.IsActive)
	if err != nil {
		return matricerr.Databasef(err, "update document type %s", name)
	}
	if tag.RowsAffected() == 0 {
		return matricerr.NotFoundf("document type not found: %s", name)
	}
	return nil
}

// Delete removes a non-system document type, refusing if any note still
// references it.
func (r *DocumentTypeRepository) Delete(ctx context.Context, tx Queryer, name string) error {
	existing, err := r.GetByName(ctx, tx, name)
	if err != nil {
		return err
	}
	if existing == nil {
		return matricerr.NotFoundf("document type not found: %s", name)
	}
	if existing.IsSystem {
		return matricerr.InvalidInputf("cannot delete system document type %q", name)
	}

	var refCount int
	err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM note WHERE document_type_id = $1`, existing.ID).Scan(&refCount)
	if err != nil {
		return matricerr.Databasef(err, "count notes referencing document type %s", name)
	}
	if refCount > 0 {
		return matricerr.InvalidInputf("cannot delete document type %q: %d notes reference it", name, refCount)
	}

	_, err = tx.Exec(ctx, `DELETE FROM document_type WHERE name = $1 AND is_system = FALSE`, name)
	if err != nil {
		return matricerr.Databasef(err, "delete document type %s", name)
	}
	return nil
}
