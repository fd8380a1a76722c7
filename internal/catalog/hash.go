package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"git.home.luguber.info/inful/runnerforge/internal/sandbox"
)

// EntryHash computes the build-provenance fingerprint of one catalog entry:
// SHA-256 over the serialized metadata concatenated with the decimal build
// epoch, hex encoded. Identical metadata at the same epoch always hashes
// identically; a different epoch always changes the hash. This is not a pure
// content checksum.
func EntryHash(meta sandbox.Metadata, epoch int64) (string, error) {
	// json.Marshal sorts map keys, so serialization is deterministic.
	serialized, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal metadata for hash: %w", err)
	}

	h := sha256.New()
	h.Write(serialized)
	h.Write([]byte(strconv.FormatInt(epoch, 10)))
	return hex.EncodeToString(h.Sum(nil)), nil
}
