package attachment

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// ContentHashPrefix is prepended to every hex digest so hashes are
// self-describing if the algorithm ever changes.
const ContentHashPrefix = "blake3:"

// ComputeContentHash returns the deterministic "blake3:<64-hex>" fingerprint
// of data, used to deduplicate attachment blobs across the whole archive.
func ComputeContentHash(data []byte) string {
	sum := blake3.Sum256(data)
	return ContentHashPrefix + hex.EncodeToString(sum[:])
}
