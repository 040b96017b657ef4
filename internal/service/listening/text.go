// internal/service/listening/text.go

package listening

import (
	"strings"
)

// Normalize collapses whitespace runs in a raw text field. Values that are not
// strings normalize to the empty string.
func Normalize(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.Join(strings.Fields(s), " ")
}
