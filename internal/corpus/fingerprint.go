package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Fingerprint is a content hash of the snapshot. Snapshots holding the
// same documents and sections in the same order share a fingerprint, no
// matter which process or source loaded them.
func (s Snapshot) Fingerprint() string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, d := range s.Documents {
		_ = enc.Encode(d)
	}
	// JSON output never contains a raw NUL, so it separates the two lists.
	h.Write([]byte{0})
	for _, sec := range s.Sections {
		_ = enc.Encode(sec)
	}
	return hex.EncodeToString(h.Sum(nil))
}
