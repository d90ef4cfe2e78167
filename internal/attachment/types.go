// Package attachment implements the C2 content-addressed attachment store:
// dedup by BLAKE3 hash, reference counting, safety validation, and MIME
// re-detection, layered over an archive.SchemaContext (C4) and a
// blobstore.Backend (C1).
package attachment

import "time"

// Status is the attachment lifecycle state.
type Status string

const (
	StatusUploaded    Status = "uploaded"
	StatusQueued      Status = "queued"
	StatusProcessing  Status = "processing"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusQuarantined Status = "quarantined"
)

// Blob is an AttachmentBlob row: the deduplicated, content-addressed
// payload shared by every Attachment with matching bytes.
type Blob struct {
	ID              string
	ContentHash     string
	ContentType     string
	SizeBytes       int64
	StorageBackend  string
	StoragePath     *string
	Data            []byte
	ReferenceCount  int
	CreatedAt       time.Time
}

// Attachment is a single upload's metadata, pointing at a (possibly
// shared) Blob.
type Attachment struct {
	ID                      string
	NoteID                  string
	BlobID                  string
	Filename                string
	OriginalFilename        string
	Status                  Status
	ExtractionStrategy      *string
	ExtractedText           *string
	ExtractedMetadata       map[string]any
	HasPreview              bool
	IsCanonicalContent      bool
	DetectedDocumentTypeID  *string
	DetectionConfidence     *float64
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// Summary is the lightweight projection returned by Store.ListByNote.
type Summary struct {
	ID          string
	Filename    string
	ContentType string
	SizeBytes   int64
	Status      Status
	HasPreview  bool
	CreatedAt   time.Time
}
