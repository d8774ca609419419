package arango

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// maxKeyLength is the ArangoDB document key limit.
const maxKeyLength = 254

// edgeKeySep joins the two endpoint keys of an edge document. DocumentKey
// never emits ':', so the separator is unambiguous.
const edgeKeySep = "::"

// keyByte reports whether a byte may appear in a document key as-is. This
// is deliberately narrower than what ArangoDB accepts: ':' and '%' are
// excluded so edge keys and escapes stay unambiguous.
func keyByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z':
		return true
	case b >= 'A' && b <= 'Z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '_' || b == '-' || b == '.' || b == '@':
		return true
	}
	return false
}

// DocumentKey maps a canonical node ID onto a legal ArangoDB `_key`.
// Purely numeric IDs, the common case for co-purchase data, pass through
// verbatim. Other bytes are percent-escaped, and keys past the backend's
// length limit are truncated with a hash suffix to stay unique. The mapping
// is deterministic, so re-persisting the same graph hits the same keys.
func DocumentKey(id string) string {
	clean := id
	for i := 0; i < len(id); i++ {
		if !keyByte(id[i]) {
			clean = escapeKey(id)
			break
		}
	}

	if len(clean) > maxKeyLength {
		h := fnv.New64a()
		h.Write([]byte(id))
		clean = fmt.Sprintf("%s~%x", clean[:maxKeyLength-20], h.Sum64())
	}
	return clean
}

// escapeKey percent-escapes every byte outside the key alphabet.
func escapeKey(id string) string {
	var sb strings.Builder
	sb.Grow(len(id) + 8)
	for i := 0; i < len(id); i++ {
		b := id[i]
		if keyByte(b) {
			sb.WriteByte(b)
		} else {
			fmt.Fprintf(&sb, "%%%02X", b)
		}
	}
	return sb.String()
}

// EdgeKey builds the deterministic `_key` for an edge document.
func EdgeKey(from, to string) string {
	key := DocumentKey(from) + edgeKeySep + DocumentKey(to)
	if len(key) > maxKeyLength {
		h := fnv.New64a()
		h.Write([]byte(from))
		h.Write([]byte{0})
		h.Write([]byte(to))
		key = fmt.Sprintf("%s~%x", key[:maxKeyLength-20], h.Sum64())
	}
	return key
}
