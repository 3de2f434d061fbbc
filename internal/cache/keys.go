// internal/cache/keys.go
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"finsight-context/internal/models"
)

// Key builders. Keys must be stable across processes: identical inputs hash
// identically so cached bundles and retrieval results are shared.

const (
	queryPrefixLen  = 100 // bundle keys hash only the leading query text
	vectorPrefixLen = 8   // retrieval keys hash only the leading dimensions
)

// EmbeddingKey keys a cached embedding vector by its source text.
func EmbeddingKey(text string) string {
	return "emb:" + hashString(text)
}

// BundleKey keys a cached ContextBundle by query prefix, tenant, and options.
func BundleKey(queryText, tenantID string, opts models.QueryOptions) string {
	prefix := queryText
	if len(prefix) > queryPrefixLen {
		prefix = prefix[:queryPrefixLen]
	}
	return "bundle:" + hashString(prefix+"|"+tenantID+"|"+optionsFingerprint(opts))
}

// RetrievalKey keys a per-source raw result by vector prefix, tenant, source,
// and the filter fingerprint.
func RetrievalKey(vector []float32, tenantID string, source models.SourceType, filterFingerprint string) string {
	n := len(vector)
	if n > vectorPrefixLen {
		n = vectorPrefixLen
	}
	var sb strings.Builder
	for _, dim := range vector[:n] {
		fmt.Fprintf(&sb, "%.6f,", dim)
	}
	payload := sb.String() + "|" + tenantID + "|" + string(source) + "|" + filterFingerprint
	return "ret:" + string(source) + ":" + hashString(payload)
}

// optionsFingerprint renders options deterministically: map iteration order
// must not leak into the key.
func optionsFingerprint(opts models.QueryOptions) string {
	var sb strings.Builder

	types := make([]string, 0, len(opts.ContextTypes))
	for _, t := range opts.ContextTypes {
		types = append(types, string(t))
	}
	sort.Strings(types)
	sb.WriteString(strings.Join(types, ","))

	fmt.Fprintf(&sb, "|max=%d|exp=%t", opts.MaxItems, opts.IncludeExpired)

	if len(opts.Thresholds) > 0 {
		keys := make([]string, 0, len(opts.Thresholds))
		for source := range opts.Thresholds {
			keys = append(keys, string(source))
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(&sb, "|th.%s=%.4f", key, opts.Thresholds[models.SourceType(key)])
		}
	}

	return sb.String()
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
