// Package versioning implements the C11 versioning engine: the dual-track
// note_original / note_revision history, restore, and diff operations of
// spec §4.11. The two tracks are never merged: a human edit advances
// note_original's linear history; an AI enrichment advances note_revision's
// independent numbering, and restoring one track never touches the other.
package versioning

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/fortemi/matric/internal/archive"
	"github.com/fortemi/matric/internal/matricerr"
)

// OriginalVersion is one entry in the note_original track, current or
// historical (spec §3 "note_original" / "note_original_history").
type OriginalVersion struct {
	ID            string // zero value for the current, not-yet-archived version
	NoteID        string
	VersionNumber int
	Content       string
	Hash          string
	CreatedAt     time.Time
	CreatedBy     string // "user" for the live row, "user" or "restore" in history
}

// VersionSummary is a note_original entry without its content, for listing.
type VersionSummary struct {
	VersionNumber int
	CreatedAt     time.Time
	CreatedBy     string
	IsCurrent     bool
}

// RevisionVersionSummary is a note_revision entry without its content.
type RevisionVersionSummary struct {
	ID             string
	RevisionNumber int
	CreatedAt      time.Time
	Model          *string
	IsUserEdited   bool
}

// Revision is one full note_revision row (spec §3 "note_revision").
type Revision struct {
	ID             string
	NoteID         string
	RevisionNumber int
	Content        string
	Type           string
	Summary        *string
	Rationale      *string
	CreatedAt      time.Time
	Model          *string
	IsUserEdited   bool
}

// NoteVersions is the combined, dual-track listing returned by ListVersions.
type NoteVersions struct {
	NoteID                 string
	CurrentOriginalVersion int
	CurrentRevisionNumber  *int
	OriginalVersions       []VersionSummary
	RevisedVersions        []RevisionVersionSummary
}

const (
	defaultMaxHistory         = 50
	versioningEnabledConfigKey = "versioning_enabled"
	versioningMaxHistoryKey    = "versioning_max_history"
)

// Repository is the C11 façade over note_original(_history) and
// note_revision, archive-scoped like every other C4/C11 repository: every
// method takes an explicit Queryer bound to one archive's schema.
type Repository struct {
	userConfig *archive.UserConfigRepository
	notes      *archive.NoteRepository
}

// NewRepository returns a stateless façade.
func NewRepository() *Repository {
	return &Repository{
		userConfig: archive.NewUserConfigRepository(),
		notes:      archive.NewNoteRepository(),
	}
}

// ListVersions returns both tracks' history for a note, newest first, with
// the live note_original row synthesized as the current, not-yet-archived
// version.
func (r *Repository) ListVersions(ctx context.Context, tx archive.Queryer, noteID string) (*NoteVersions, error) {
	var currentVersion int
	var currentUpdatedAt time.Time
	err := tx.QueryRow(ctx, `
		SELECT version_number, user_last_edited_at FROM note_original WHERE note_id = $1
	`, noteID).Scan(&currentVersion, &currentUpdatedAt)
	switch {
	case err == pgx.ErrNoRows:
		currentVersion = 1
		currentUpdatedAt = time.Now()
	case err != nil:
		return nil, matricerr.Databasef(err, "get current original version for note %s", noteID)
	}

	rows, err := tx.Query(ctx, `
		SELECT version_number, created_at_utc, created_by
		FROM note_original_history
		WHERE note_id = $1
		ORDER BY version_number DESC
	`, noteID)
	if err != nil {
		return nil, matricerr.Databasef(err, "list original history for note %s", noteID)
	}
	var originals []VersionSummary
	for rows.Next() {
		var s VersionSummary
		if err := rows.Scan(&s.VersionNumber, &s.CreatedAt, &s.CreatedBy); err != nil {
			rows.Close()
			return nil, matricerr.Databasef(err, "scan original history row")
		}
		originals = append(originals, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, matricerr.Databasef(err, "iterate original history rows")
	}

	originals = append([]VersionSummary{{
		VersionNumber: currentVersion,
		CreatedAt:     currentUpdatedAt,
		CreatedBy:     "user",
		IsCurrent:     true,
	}}, originals...)

	revRows, err := tx.Query(ctx, `
		SELECT id, revision_number, created_at_utc, model, is_user_edited
		FROM note_revision
		WHERE note_id = $1
		ORDER BY revision_number DESC
	`, noteID)
	if err != nil {
		return nil, matricerr.Databasef(err, "list revisions for note %s", noteID)
	}
	var revisions []RevisionVersionSummary
	var maxRevision *int
	for revRows.Next() {
		var s RevisionVersionSummary
		if err := revRows.Scan(&s.ID, &s.RevisionNumber, &s.CreatedAt, &s.Model, &s.IsUserEdited); err != nil {
			revRows.Close()
			return nil, matricerr.Databasef(err, "scan revision row")
		}
		revisions = append(revisions, s)
		if maxRevision == nil || s.RevisionNumber > *maxRevision {
			n := s.RevisionNumber
			maxRevision = &n
		}
	}
	revRows.Close()
	if err := revRows.Err(); err != nil {
		return nil, matricerr.Databasef(err, "iterate revision rows")
	}

	return &NoteVersions{
		NoteID:                 noteID,
		CurrentOriginalVersion: currentVersion,
		CurrentRevisionNumber:  maxRevision,
		OriginalVersions:       originals,
		RevisedVersions:        revisions,
	}, nil
}

// GetOriginalVersion fetches one note_original track entry, current or
// historical, by version number.
func (r *Repository) GetOriginalVersion(ctx context.Context, tx archive.Queryer, noteID string, version int) (*OriginalVersion, error) {
	var v OriginalVersion
	v.NoteID = noteID
	err := tx.QueryRow(ctx, `
		SELECT version_number, content, hash, user_last_edited_at
		FROM note_original WHERE note_id = $1 AND version_number = $2
	`, noteID, version).Scan(&v.VersionNumber, &v.Content, &v.Hash, &v.CreatedAt)
	if err == nil {
		v.CreatedBy = "user"
		return &v, nil
	}
	if err != pgx.ErrNoRows {
		return nil, matricerr.Databasef(err, "get current original version %d for note %s", version, noteID)
	}

	err = tx.QueryRow(ctx, `
		SELECT id, version_number, content, hash, created_at_utc, created_by
		FROM note_original_history WHERE note_id = $1 AND version_number = $2
	`, noteID, version).Scan(&v.ID, &v.VersionNumber, &v.Content, &v.Hash, &v.CreatedAt, &v.CreatedBy)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, matricerr.NotFoundf("version %d not found for note %s", version, noteID)
		}
		return nil, matricerr.Databasef(err, "get historical original version %d for note %s", version, noteID)
	}
	return &v, nil
}

// GetRevisionVersion fetches one note_revision track entry by revision
// number.
func (r *Repository) GetRevisionVersion(ctx context.Context, tx archive.Queryer, noteID string, revisionNumber int) (*Revision, error) {
	var rev Revision
	rev.NoteID = noteID
	err := tx.QueryRow(ctx, `
		SELECT id, revision_number, content, type, summary, rationale, created_at_utc, model, is_user_edited
		FROM note_revision WHERE note_id = $1 AND revision_number = $2
	`, noteID, revisionNumber).Scan(
		&rev.ID, &rev.RevisionNumber, &rev.Content, &rev.Type, &rev.Summary, &rev.Rationale,
		&rev.CreatedAt, &rev.Model, &rev.IsUserEdited,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, matricerr.NotFoundf("revision %d not found for note %s", revisionNumber, noteID)
		}
		return nil, matricerr.Databasef(err, "get revision %d for note %s", revisionNumber, noteID)
	}
	return &rev, nil
}

// RestoreOriginalVersion restores a historical (or current) note_original
// version as a new current version. A DB trigger is expected to archive the
// prior current row into note_original_history on this UPDATE, matching the
// rest of the schema's history-on-write convention; this method only marks
// that freshly-archived row as a restore afterward. When restoreTags is
// set and the restored content carries a "snapshot_tags" YAML front-matter
// field, the note's live tag set is replaced with the snapshot.
func (r *Repository) RestoreOriginalVersion(ctx context.Context, tx archive.Queryer, noteID string, version int, restoreTags bool) (int, error) {
	target, err := r.GetOriginalVersion(ctx, tx, noteID, version)
	if err != nil {
		return 0, err
	}

	content, snapshotTags, hasSnapshot := extractSnapshotTags(target.Content)
	if restoreTags && hasSnapshot {
		if err := r.notes.SetTags(ctx, tx, noteID, snapshotTags); err != nil {
			return 0, err
		}
	}

	newHash := contentHash(content)
	if _, err := tx.Exec(ctx, `
		UPDATE note_original SET content = $2, hash = $3 WHERE note_id = $1
	`, noteID, content, newHash); err != nil {
		return 0, matricerr.Databasef(err, "restore original content for note %s", noteID)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE note_original_history
		SET created_by = 'restore'
		WHERE id = (
			SELECT id FROM note_original_history WHERE note_id = $1 ORDER BY version_number DESC LIMIT 1
		)
	`, noteID); err != nil {
		return 0, matricerr.Databasef(err, "mark restore history entry for note %s", noteID)
	}

	var newVersion int
	if err := tx.QueryRow(ctx, `SELECT version_number FROM note_original WHERE note_id = $1`, noteID).Scan(&newVersion); err != nil {
		return 0, matricerr.Databasef(err, "read restored version number for note %s", noteID)
	}
	return newVersion, nil
}

// DeleteVersion removes one historical entry. The current version can
// never be deleted this way.
func (r *Repository) DeleteVersion(ctx context.Context, tx archive.Queryer, noteID string, version int) (bool, error) {
	var current int
	if err := tx.QueryRow(ctx, `SELECT version_number FROM note_original WHERE note_id = $1`, noteID).Scan(&current); err != nil && err != pgx.ErrNoRows {
		return false, matricerr.Databasef(err, "read current version for note %s", noteID)
	}
	if current == version {
		return false, matricerr.InvalidInputf("cannot delete current version %d for note %s", version, noteID)
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM note_original_history WHERE note_id = $1 AND version_number = $2
	`, noteID, version)
	if err != nil {
		return false, matricerr.Databasef(err, "delete version %d for note %s", version, noteID)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteVersionsBefore prunes history older than beforeVersion. No code in
// this repository calls it, so the versioning_max_history setting read by
// MaxHistory is not applied automatically.
func (r *Repository) DeleteVersionsBefore(ctx context.Context, tx archive.Queryer, noteID string, beforeVersion int) (int64, error) {
	tag, err := tx.Exec(ctx, `
		DELETE FROM note_original_history WHERE note_id = $1 AND version_number < $2
	`, noteID, beforeVersion)
	if err != nil {
		return 0, matricerr.Databasef(err, "prune history before %d for note %s", beforeVersion, noteID)
	}
	return tag.RowsAffected(), nil
}

// DiffVersions renders a unified line diff between two note_original
// versions, front matter stripped from both sides first. The diff comes
// from go-difflib (already carried as a testify dependency) rather than a
// hand-rolled LCS; it is a port of Python's difflib and matches lines with
// its SequenceMatcher.
func (r *Repository) DiffVersions(ctx context.Context, tx archive.Queryer, noteID string, fromVersion, toVersion int) (string, error) {
	from, err := r.GetOriginalVersion(ctx, tx, noteID, fromVersion)
	if err != nil {
		return "", err
	}
	to, err := r.GetOriginalVersion(ctx, tx, noteID, toVersion)
	if err != nil {
		return "", err
	}

	fromContent, _, _ := extractSnapshotTags(from.Content)
	toContent, _, _ := extractSnapshotTags(to.Content)

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(fromContent),
		B:        difflib.SplitLines(toContent),
		FromFile: versionLabel(fromVersion),
		ToFile:   versionLabel(toVersion),
		Context:  3,
	}
	out, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", matricerr.Internalf(err, "render diff for note %s", noteID)
	}
	return out, nil
}

// IsVersioningEnabled reads the archive-level versioning_enabled toggle,
// defaulting to true (spec §4.11: versioning is on unless explicitly
// disabled).
func (r *Repository) IsVersioningEnabled(ctx context.Context, tx archive.Queryer) (bool, error) {
	return r.userConfig.GetBool(ctx, tx, versioningEnabledConfigKey, true)
}

// SetVersioningEnabled flips the archive-level toggle.
func (r *Repository) SetVersioningEnabled(ctx context.Context, tx archive.Queryer, enabled bool) error {
	return r.userConfig.Set(ctx, tx, versioningEnabledConfigKey, enabled)
}

// MaxHistory reads the archive-level versioning_max_history setting,
// defaulting to 50.
func (r *Repository) MaxHistory(ctx context.Context, tx archive.Queryer) (int, error) {
	return r.userConfig.GetInt(ctx, tx, versioningMaxHistoryKey, defaultMaxHistory)
}

// contentHash is the change-detection digest stored alongside each
// note_original row. MD5 is not a security primitive here, only a cheap
// equality check on content bytes, matching the original history table's
// hash column semantics exactly.
func contentHash(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

const frontMatterDelim = "---\n"

// extractSnapshotTags strips a leading YAML front-matter block from
// content, returning the remaining body and, if present, the tag list
// carried in the block's "snapshot_tags" field (spec §4.11 restore
// algorithm). hasSnapshot is false when there is no front matter or no
// parseable snapshot_tags line. Without a complete front-matter block body
// equals content unchanged; with one, body is the text after the closing
// delimiter whether or not snapshot_tags was found.
func extractSnapshotTags(content string) (body string, tags []string, hasSnapshot bool) {
	if !strings.HasPrefix(content, frontMatterDelim) {
		return content, nil, false
	}
	rest := content[len(frontMatterDelim):]
	endIdx := strings.Index(rest, "\n---\n")
	if endIdx < 0 {
		return content, nil, false
	}
	frontMatter := rest[:endIdx]
	actualContent := rest[endIdx+len("\n---\n"):]

	for _, line := range strings.Split(frontMatter, "\n") {
		const prefix = "snapshot_tags: "
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		var parsed []string
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, prefix)), &parsed); err == nil {
			return actualContent, parsed, true
		}
		break
	}
	return actualContent, nil, false
}

func versionLabel(version int) string {
	return "version " + strconv.Itoa(version)
}
