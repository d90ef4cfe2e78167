// Package matricid generates the UUIDv7 identifiers used for notes, jobs,
// attachments and embeddings, and derives the sharded blob storage paths
// from them.
package matricid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// New returns a time-ordered UUIDv7. It panics if the platform's random
// source is unavailable, matching the teacher's fail-fast Must pattern for
// identifier generation code, where a missing entropy source is not
// recoverable.
func New() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		panic(fmt.Sprintf("matricid: failed to generate uuidv7: %v", err))
	}
	return id
}

// BlobPath returns the sharded filesystem path for a blob identified by id,
// e.g. "blobs/3f/2a/3f2a1c4e-....bin". The shard prefixes are the first two
// lowercase hex byte-pairs of the hyphenless UUID representation.
func BlobPath(id uuid.UUID) string {
	hex := strings.ReplaceAll(id.String(), "-", "")
	return fmt.Sprintf("blobs/%s/%s/%s.bin", hex[0:2], hex[2:4], id.String())
}
