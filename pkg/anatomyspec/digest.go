package anatomyspec

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Digest returns a hex BLAKE2b-256 of the document's JSON encoding. Two
// documents with the same digest build identical networks. Map keys are
// sorted by encoding/json, so the digest does not depend on where or in
// which format the document was stored.
func Digest(doc *Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", doc.Key(), err)
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
