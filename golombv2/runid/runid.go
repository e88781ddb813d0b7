// Package runid stamps each search run with a short random identifier
// used in logs and the benchmark description column.
package runid

import (
	"crypto/rand"

	"github.com/btcsuite/btcutil/base58"
)

// New returns a fresh 6-byte base58 run id, e.g. "4fj9XbQM".
func New() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "unknown"
	}
	return base58.Encode(buf)
}
