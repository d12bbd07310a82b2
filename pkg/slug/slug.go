// Package slug derives URL paths for articles from their titles.
package slug

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// FallbackPrefix starts the synthetic slug used when a title has no latin
// characters left after stripping Japanese script.
const FallbackPrefix = "article"

var (
	japaneseRe = regexp.MustCompile(`[ぁ-んァ-ヴ一-龠]`)
	nonSlugRe  = regexp.MustCompile(`[^a-z0-9]+`)
	validRe    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// ExistsFunc reports whether an article already uses the candidate slug.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Base lowercases title, removes Hiragana, Katakana and Kanji, and joins the
// remaining latin words with single hyphens.
func Base(title string, now time.Time) string {
	s := strings.ToLower(title)
	s = japaneseRe.ReplaceAllString(s, "")
	s = nonSlugRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return fmt.Sprintf("%s-%d", FallbackPrefix, now.UnixMilli())
	}
	return s
}

// Unique returns the first of base, base-1, base-2, ... for which exists
// reports false. It performs one lookup per candidate and takes no locks, so
// callers still rely on the unique index to catch concurrent inserts.
func Unique(ctx context.Context, title string, now time.Time, exists ExistsFunc) (string, error) {
	base := Base(title, now)
	candidate := base
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

// Valid reports whether s only uses lowercase letters, digits and single
// hyphens between them.
func Valid(s string) bool {
	return validRe.MatchString(s)
}
