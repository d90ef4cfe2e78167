package attachment

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/fortemi/matric/internal/archive"
	"github.com/fortemi/matric/internal/blobstore"
	"github.com/fortemi/matric/internal/matricerr"
	"github.com/fortemi/matric/internal/matricid"
)

// Store is the C2 façade: it validates an upload, deduplicates its bytes
// against existing blobs by content hash, persists the blob through the
// configured blobstore.Backend, and records the per-note Attachment row.
// Every method that touches the archive does so inside a SchemaContext
// transaction; there is no non-transactional path to the database.
type Store struct {
	schema  *archive.SchemaContext
	backend blobstore.Backend
	maxSize int64
}

// NewStore wires a Store to one archive's schema and its configured blob
// backend. maxSize is the upload size ceiling enforced before any bytes
// are hashed or written.
func NewStore(schema *archive.SchemaContext, backend blobstore.Backend, maxSize int64) *Store {
	return &Store{schema: schema, backend: backend, maxSize: maxSize}
}

// Upload validates, stores and records a new attachment on noteID. If an
// existing blob already has matching content, its reference_count is
// incremented instead of writing the bytes again (spec §8 invariant: a
// blob's reference_count always equals the number of attachments pointing
// at it, on both the initial-upload and later dedup paths).
func (s *Store) Upload(ctx context.Context, noteID, filename string, data []byte, claimedType string) (*Attachment, error) {
	result := ValidateUpload(filename, data, s.maxSize)
	if !result.Allowed {
		return nil, matricerr.InvalidInputf("attachment rejected: %s", result.Reason)
	}

	contentType := DetectContentType(filename, data, claimedType)
	contentHash := ComputeContentHash(data)
	sanitized := SanitizeFilename(filename)

	var out *Attachment
	err := s.schema.Execute(ctx, func(ctx context.Context, tx pgx.Tx) error {
		blobID, isNew, err := s.findOrCreateBlob(ctx, tx, contentHash, contentType, int64(len(data)))
		if err != nil {
			return err
		}
		if isNew {
			path := matricid.BlobPath(matricid.New())
			if err := s.backend.Write(ctx, path, data); err != nil {
				return matricerr.Internalf(err, "write attachment blob")
			}
			if _, err := tx.Exec(ctx, `UPDATE attachment_blob SET storage_path = $2 WHERE id = $1`, blobID, path); err != nil {
				return matricerr.Databasef(err, "record attachment blob storage path")
			}
		}

		a := &Attachment{
			ID:                 matricid.New().String(),
			NoteID:             noteID,
			BlobID:             blobID,
			Filename:           sanitized,
			OriginalFilename:   filename,
			Status:             StatusUploaded,
			IsCanonicalContent: false,
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO attachment (id, note_id, blob_id, filename, original_filename, status, is_canonical_content)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING created_at, updated_at
		`, a.ID, a.NoteID, a.BlobID, a.Filename, a.OriginalFilename, a.Status, a.IsCanonicalContent).Scan(&a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return matricerr.Databasef(err, "create attachment")
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// findOrCreateBlob returns the id of the blob for contentHash, creating it
// with reference_count = 1 if absent, or incrementing reference_count on an
// existing match. isNew reports whether the caller must still write bytes.
func (s *Store) findOrCreateBlob(ctx context.Context, tx pgx.Tx, contentHash, contentType string, size int64) (blobID string, isNew bool, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE attachment_blob SET reference_count = reference_count + 1
		WHERE content_hash = $1
		RETURNING id
	`, contentHash).Scan(&blobID)
	if err == nil {
		return blobID, false, nil
	}
	if err != pgx.ErrNoRows {
		return "", false, matricerr.Databasef(err, "find attachment blob")
	}

	blobID = matricid.New().String()
	_, err = tx.Exec(ctx, `
		INSERT INTO attachment_blob (id, content_hash, content_type, size_bytes, storage_backend, reference_count)
		VALUES ($1, $2, $3, $4, $5, 1)
	`, blobID, contentHash, contentType, size, "filesystem")
	if err != nil {
		return "", false, matricerr.Databasef(err, "create attachment blob")
	}
	return blobID, true, nil
}

// Get returns an attachment's metadata row.
func (s *Store) Get(ctx context.Context, attachmentID string) (*Attachment, error) {
	var out *Attachment
	err := s.schema.Query(ctx, func(ctx context.Context, tx pgx.Tx) error {
		a, err := scanAttachment(ctx, tx, attachmentID)
		if err != nil {
			return err
		}
		out = a
		return nil
	})
	return out, err
}

func scanAttachment(ctx context.Context, tx pgx.Tx, attachmentID string) (*Attachment, error) {
	var a Attachment
	var extractedMetadataJSON []byte
	err := tx.QueryRow(ctx, `
		SELECT id, note_id, blob_id, filename, original_filename, status,
		       extraction_strategy, extracted_text, extracted_metadata, has_preview,
		       is_canonical_content, detected_document_type_id, detection_confidence,
		       created_at, updated_at
		FROM attachment WHERE id = $1
	`, attachmentID).Scan(
		&a.ID, &a.NoteID, &a.BlobID, &a.Filename, &a.OriginalFilename, &a.Status,
		&a.ExtractionStrategy, &a.ExtractedText, &extractedMetadataJSON, &a.HasPreview,
		&a.IsCanonicalContent, &a.DetectedDocumentTypeID, &a.DetectionConfidence,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, matricerr.NotFoundf("attachment not found: %s", attachmentID)
		}
		return nil, matricerr.Databasef(err, "get attachment %s", attachmentID)
	}
	if len(extractedMetadataJSON) > 0 {
		if err := json.Unmarshal(extractedMetadataJSON, &a.ExtractedMetadata); err != nil {
			return nil, matricerr.Internalf(err, "unmarshal attachment metadata %s", attachmentID)
		}
	}
	return &a, nil
}

// Download fetches an attachment's blob bytes by reading the blob's
// storage_path through the Store's configured backend; the blob row's
// inline data column is not consulted.
func (s *Store) Download(ctx context.Context, attachmentID string) (data []byte, contentType, filename string, err error) {
	var path string
	err = s.schema.Query(ctx, func(ctx context.Context, tx pgx.Tx) error {
		a, err := scanAttachment(ctx, tx, attachmentID)
		if err != nil {
			return err
		}
		filename = a.Filename

		err = tx.QueryRow(ctx, `
			SELECT content_type, storage_path FROM attachment_blob WHERE id = $1
		`, a.BlobID).Scan(&contentType, &path)
		if err != nil {
			if err == pgx.ErrNoRows {
				return matricerr.NotFoundf("attachment blob not found for %s", attachmentID)
			}
			return matricerr.Databasef(err, "get attachment blob %s", a.BlobID)
		}
		return nil
	})
	if err != nil {
		return nil, "", "", err
	}

	data, err = s.backend.Read(ctx, path)
	if err != nil {
		return nil, "", "", err
	}
	return data, contentType, filename, nil
}

// ListByNote returns the lightweight summaries for every attachment on a
// note, newest first.
func (s *Store) ListByNote(ctx context.Context, noteID string) ([]Summary, error) {
	var out []Summary
	err := s.schema.Query(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT a.id, a.filename, b.content_type, b.size_bytes, a.status, a.has_preview, a.created_at
			FROM attachment a JOIN attachment_blob b ON b.id = a.blob_id
			WHERE a.note_id = $1
			ORDER BY a.created_at DESC
		`, noteID)
		if err != nil {
			return matricerr.Databasef(err, "list attachments for note %s", noteID)
		}
		defer rows.Close()

		for rows.Next() {
			var sm Summary
			if err := rows.Scan(&sm.ID, &sm.Filename, &sm.ContentType, &sm.SizeBytes, &sm.Status, &sm.HasPreview, &sm.CreatedAt); err != nil {
				return matricerr.Databasef(err, "scan attachment summary")
			}
			out = append(out, sm)
		}
		return rows.Err()
	})
	return out, err
}

// Delete removes an attachment and decrements its blob's reference count.
// A blob whose reference_count reaches zero is left in place for
// CleanupOrphanBlobs to reclaim, so a concurrent upload racing the same
// content hash can still dedup against it.
func (s *Store) Delete(ctx context.Context, attachmentID string) error {
	return s.schema.Execute(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var blobID string
		err := tx.QueryRow(ctx, `DELETE FROM attachment WHERE id = $1 RETURNING blob_id`, attachmentID).Scan(&blobID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return matricerr.NotFoundf("attachment not found: %s", attachmentID)
			}
			return matricerr.Databasef(err, "delete attachment %s", attachmentID)
		}
		_, err = tx.Exec(ctx, `
			UPDATE attachment_blob SET reference_count = GREATEST(reference_count - 1, 0) WHERE id = $1
		`, blobID)
		if err != nil {
			return matricerr.Databasef(err, "decrement attachment blob reference count")
		}
		return nil
	})
}

// SetExtractionStrategy records which C7 adapter will process this
// attachment, set when the extraction job is enqueued.
func (s *Store) SetExtractionStrategy(ctx context.Context, attachmentID, strategy string) error {
	return s.updateField(ctx, attachmentID, `UPDATE attachment SET extraction_strategy = $2, updated_at = now() WHERE id = $1`, strategy)
}

// SetDocumentType records an explicit (user- or rule-assigned) document type.
func (s *Store) SetDocumentType(ctx context.Context, attachmentID, documentTypeID string) error {
	return s.schema.Execute(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE attachment SET is_canonical_content = true, updated_at = now()
			WHERE id = $1
		`, attachmentID)
		if err != nil {
			return matricerr.Databasef(err, "set attachment document type %s", attachmentID)
		}
		if tag.RowsAffected() == 0 {
			return matricerr.NotFoundf("attachment not found: %s", attachmentID)
		}
		_, err = tx.Exec(ctx, `UPDATE note SET document_type_id = $2 WHERE id = (SELECT note_id FROM attachment WHERE id = $1)`, attachmentID, documentTypeID)
		if err != nil {
			return matricerr.Databasef(err, "propagate document type to note")
		}
		return nil
	})
}

// SetDetectedDocumentType records C7's inferred document type classification
// and its confidence score, distinct from an explicit SetDocumentType call.
func (s *Store) SetDetectedDocumentType(ctx context.Context, attachmentID, documentTypeID string, confidence float64) error {
	tag, err := s.exec(ctx, `
		UPDATE attachment SET detected_document_type_id = $2, detection_confidence = $3, updated_at = now()
		WHERE id = $1
	`, attachmentID, documentTypeID, confidence)
	if err != nil {
		return err
	}
	if tag == 0 {
		return matricerr.NotFoundf("attachment not found: %s", attachmentID)
	}
	return nil
}

// SetHasPreview records that a preview rendering (e.g. an image thumbnail
// or a 3D model's composite view) was generated for this attachment during
// extraction. Preview bytes themselves are left to the caller to persist
// through whatever channel serves previews back to clients; this flag is
// purely the queryable marker of their existence.
func (s *Store) SetHasPreview(ctx context.Context, attachmentID string, hasPreview bool) error {
	return s.updateField(ctx, attachmentID, `UPDATE attachment SET has_preview = $2, updated_at = now() WHERE id = $1`, hasPreview)
}

// UpdateStatus transitions an attachment through its extraction lifecycle.
func (s *Store) UpdateStatus(ctx context.Context, attachmentID string, status Status) error {
	return s.updateField(ctx, attachmentID, `UPDATE attachment SET status = $2, updated_at = now() WHERE id = $1`, status)
}

// UpdateExtractedContent records C7's output text and structured metadata
// and marks the attachment completed.
func (s *Store) UpdateExtractedContent(ctx context.Context, attachmentID, text string, metadata map[string]any) error {
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return matricerr.InvalidInputf("marshal extracted metadata: %v", err)
	}
	tag, err := s.exec(ctx, `
		UPDATE attachment
		SET extracted_text = $2, extracted_metadata = $3, status = $4, updated_at = now()
		WHERE id = $1
	`, attachmentID, text, metadataJSON, StatusCompleted)
	if err != nil {
		return err
	}
	if tag == 0 {
		return matricerr.NotFoundf("attachment not found: %s", attachmentID)
	}
	return nil
}

// CleanupOrphanBlobs permanently deletes blob rows and bytes for every blob
// whose reference_count has reached zero, reclaiming dedup'd storage once
// the last attachment pointing at it is gone.
func (s *Store) CleanupOrphanBlobs(ctx context.Context) (int, error) {
	var paths []string
	err := s.schema.Execute(ctx, func(ctx context.Context, tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `DELETE FROM attachment_blob WHERE reference_count <= 0 RETURNING storage_path`)
		if err != nil {
			return matricerr.Databasef(err, "cleanup orphan blobs")
		}
		defer rows.Close()
		for rows.Next() {
			var path *string
			if err := rows.Scan(&path); err != nil {
				return matricerr.Databasef(err, "scan orphan blob path")
			}
			if path != nil {
				paths = append(paths, *path)
			}
		}
		return rows.Err()
	})
	if err != nil {
		return 0, err
	}
	for _, path := range paths {
		if err := s.backend.Delete(ctx, path); err != nil {
			return len(paths), matricerr.Internalf(err, "delete orphan blob bytes at %s", path)
		}
	}
	return len(paths), nil
}

func (s *Store) updateField(ctx context.Context, attachmentID, query string, arg any) error {
	tag, err := s.exec(ctx, query, attachmentID, arg)
	if err != nil {
		return err
	}
	if tag == 0 {
		return matricerr.NotFoundf("attachment not found: %s", attachmentID)
	}
	return nil
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (rowsAffected int64, err error) {
	execErr := s.schema.Execute(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return matricerr.Databasef(err, "attachment update")
		}
		rowsAffected = tag.RowsAffected()
		return nil
	})
	if execErr != nil {
		return 0, execErr
	}
	return rowsAffected, nil
}
