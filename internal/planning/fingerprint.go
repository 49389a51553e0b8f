package planning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Fingerprint derives a stable digest of one input snapshot plus the seed
// it will be planned with. It keys the plan cache, the audit log's input
// hash, and the run id itself, so identical inputs and seed always name
// the same run. Inputs are hashed in their loaded order; loaders produce
// deterministic order from the source files.
func Fingerprint(in Inputs, seed int64) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, part := range []any{in.Flights, in.Cargo, in.Rules, seed} {
		if err := enc.Encode(part); err != nil {
			return "", fmt.Errorf("fingerprinting inputs: %w", err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
