package cache

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// canonicalKey serializes an arbitrary structured key into a stable
// string. Maps are serialized with sorted keys (encoding/json sorts map
// keys), so semantically identical keys with reordered fields collide.
// The canonical form is kept alongside the digest so pattern-based
// invalidation can match against something human-meaningful.
func canonicalKey(key any) string {
	switch k := key.(type) {
	case string:
		return k
	case fmt.Stringer:
		return k.String()
	}
	data, err := json.Marshal(key)
	if err != nil {
		// Unmarshalable keys (channels, funcs) fall back to the verbose
		// representation; still deterministic for a given value.
		return fmt.Sprintf("%#v", key)
	}
	return string(data)
}

// digest hashes a canonical key into the fixed-size map key.
func digest(canonical string) uint64 {
	return xxhash.Sum64String(canonical)
}
