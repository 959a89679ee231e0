package query

import (
	"fmt"
	"strings"
	"time"
)

// Builder accumulates filter conditions. The zero value is ready to use.
type Builder struct {
	conditions []string
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// Escape escapes a literal for interpolation inside single quotes.
// Backslashes are escaped before quotes so an escaped quote is never doubled.
func Escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func quote(s string) string {
	return "'" + Escape(s) + "'"
}

func (b *Builder) add(cond string) *Builder {
	b.conditions = append(b.conditions, cond)
	return b
}

// InParents restricts results to direct children of parentID.
func (b *Builder) InParents(parentID string) *Builder {
	return b.add(quote(parentID) + " in parents")
}

// NameEquals matches the exact object name.
func (b *Builder) NameEquals(name string) *Builder {
	return b.add("name = " + quote(name))
}

// NameContains matches names containing s.
func (b *Builder) NameContains(s string) *Builder {
	return b.add("name contains " + quote(s))
}

// MimeTypeEquals matches the exact MIME type.
func (b *Builder) MimeTypeEquals(mimeType string) *Builder {
	return b.add("mimeType = " + quote(mimeType))
}

// MimeTypeNotEquals excludes the given MIME type.
func (b *Builder) MimeTypeNotEquals(mimeType string) *Builder {
	return b.add("mimeType != " + quote(mimeType))
}

// MimeTypeContains matches MIME types containing s, e.g. "image/".
func (b *Builder) MimeTypeContains(s string) *Builder {
	return b.add("mimeType contains " + quote(s))
}

// FullTextContains matches objects whose indexed content contains s.
func (b *Builder) FullTextContains(s string) *Builder {
	return b.add("fullText contains " + quote(s))
}

// NameOrFullTextContains matches objects whose name or content contains s.
func (b *Builder) NameOrFullTextContains(s string) *Builder {
	q := quote(s)
	return b.add(fmt.Sprintf("(name contains %s or fullText contains %s)", q, q))
}

// ModifiedAfter matches objects modified strictly after t.
func (b *Builder) ModifiedAfter(t time.Time) *Builder {
	return b.add("modifiedTime > " + quote(t.UTC().Format(time.RFC3339)))
}

// Trashed matches on the trashed flag.
func (b *Builder) Trashed(trashed bool) *Builder {
	return b.add(fmt.Sprintf("trashed = %t", trashed))
}

// OwnedByMe restricts results to objects owned by the authenticated user.
func (b *Builder) OwnedByMe() *Builder {
	return b.add("'me' in owners")
}

// Raw appends a caller-supplied condition verbatim. Empty input is ignored.
// The condition is wrapped in parentheses when it contains a top-level "or".
func (b *Builder) Raw(cond string) *Builder {
	cond = strings.TrimSpace(cond)
	if cond == "" {
		return b
	}
	if strings.Contains(strings.ToLower(cond), " or ") && !isParenthesized(cond) {
		cond = "(" + cond + ")"
	}
	return b.add(cond)
}

// Len reports the number of accumulated conditions.
func (b *Builder) Len() int {
	return len(b.conditions)
}

// Build joins all conditions with " and ". No conditions yields "".
func (b *Builder) Build() string {
	return strings.Join(b.conditions, " and ")
}

// String implements fmt.Stringer.
func (b *Builder) String() string {
	return b.Build()
}

// isParenthesized reports whether s is fully wrapped by one matching pair of
// parentheses, ignoring parentheses inside quoted literals.
func isParenthesized(s string) bool {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return false
	}
	depth := 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && inQuote:
			i++
		case c == '\'':
			inQuote = !inQuote
		case inQuote:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return false
			}
		}
	}
	return depth == 0
}
