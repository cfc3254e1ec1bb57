package usecases

import (
	"strings"

	"relampago-bridge/internal/entities"
)

// NormalizePhone strips a leading '+' and every non-digit rune from a raw
// phone string. No length or country-code validation: malformed input just
// yields whatever digits remain, possibly the empty string. Idempotent.
func NormalizePhone(raw string) string {
	raw = strings.TrimPrefix(raw, "+")
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ChatID normalizes a phone identifier into a dispatch target. Any existing
// suffix is discarded during normalization, so re-suffixing an already
// suffixed identifier cannot double it.
func ChatID(raw string) string {
	return NormalizePhone(raw) + entities.ChatSuffix
}
