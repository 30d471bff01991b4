package query

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidIncludePath is returned for empty paths or empty segments.
	ErrInvalidIncludePath = errors.New("invalid include path")
	// ErrInvalidIdentifier is returned for field or relation names that
	// cannot be used as SQL identifiers.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name may appear unquoted in a fragment.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

func checkIdentifier(kind, name string) error {
	if !ValidIdentifier(name) {
		return fmt.Errorf("%w: %s %q", ErrInvalidIdentifier, kind, name)
	}
	return nil
}

// RelationPath is a sequence of relation names walked from the root entity.
type RelationPath []string

// ParsePath splits a dotted include path.
func ParsePath(include string) (RelationPath, error) {
	if strings.TrimSpace(include) == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidIncludePath)
	}
	segments := strings.Split(include, ".")
	for i, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("%w: %q has an empty segment at position %d", ErrInvalidIncludePath, include, i)
		}
		if err := checkIdentifier("relation", seg); err != nil {
			return nil, err
		}
	}
	return RelationPath(segments), nil
}

// Key is the dotted form of the path.
func (p RelationPath) Key() string {
	return strings.Join(p, ".")
}

// Prefix returns the first n segments.
func (p RelationPath) Prefix(n int) RelationPath {
	return p[:n]
}

// Leaf is the last segment.
func (p RelationPath) Leaf() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

func (p RelationPath) String() string {
	return p.Key()
}
