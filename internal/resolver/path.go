package resolver

import "strings"

// Root is the synthetic root path.
const Root = "/"

// placeholderPrefix marks a path segment whose object could not be resolved.
const placeholderPrefix = "_unresolved_"

// NormalizePath returns p with a single leading slash, no empty segments
// and no trailing slash. The empty path normalizes to the root.
func NormalizePath(p string) string {
	segs := Segments(p)
	if len(segs) == 0 {
		return Root
	}
	return Root + strings.Join(segs, "/")
}

// Segments splits p into its non-empty path segments.
func Segments(p string) []string {
	parts := strings.Split(strings.TrimSpace(p), "/")
	segs := parts[:0]
	for _, part := range parts {
		if part != "" {
			segs = append(segs, part)
		}
	}
	return segs
}

// Join appends name to the directory path dir.
func Join(dir, name string) string {
	dir = NormalizePath(dir)
	if dir == Root {
		return Root + name
	}
	return dir + "/" + name
}

// Split returns the normalized directory and the final segment of p.
// Splitting the root returns ("/", "").
func Split(p string) (dir, name string) {
	segs := Segments(p)
	if len(segs) == 0 {
		return Root, ""
	}
	return NormalizePath(strings.Join(segs[:len(segs)-1], "/")), segs[len(segs)-1]
}

// Depth returns the number of segments below the root minus one, the
// folder depth of the object at p. The root and its direct children have
// depth 0.
func Depth(p string) int {
	n := len(Segments(p)) - 1
	if n < 0 {
		return 0
	}
	return n
}

// IsPlaceholder reports whether p contains a segment standing in for an
// unresolvable ancestor.
func IsPlaceholder(p string) bool {
	for _, seg := range Segments(p) {
		if strings.HasPrefix(seg, placeholderPrefix) {
			return true
		}
	}
	return false
}

func placeholder(id string) string {
	return Root + placeholderPrefix + id
}

// isWithin reports whether p equals dir or lies below it.
func isWithin(p, dir string) bool {
	if dir == Root {
		return true
	}
	return p == dir || strings.HasPrefix(p, dir+"/")
}
