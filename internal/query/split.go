package query

import (
	"errors"
	"strings"
)

// ErrTooManyDelimiters is returned by SplitTag when a tag contains more than
// one namespace delimiter.
var ErrTooManyDelimiters = errors.New("tag contains more than one namespace delimiter")

// SplitTag splits "namespace:subtag" into its trimmed halves. A tag without a
// delimiter has an empty namespace.
func SplitTag(tag string) (namespace, subtag string, err error) {
	switch strings.Count(tag, string(NamespaceDelimiter)) {
	case 0:
		return "", strings.TrimSpace(tag), nil
	case 1:
		namespace, subtag, _ = strings.Cut(tag, string(NamespaceDelimiter))
		return strings.TrimSpace(namespace), strings.TrimSpace(subtag), nil
	default:
		return "", "", ErrTooManyDelimiters
	}
}

// ParseTagKey parses a literal "namespace:subtag" into a TagKey. Wildcards
// and negation are not interpreted.
func ParseTagKey(tag string) (TagKey, error) {
	namespace, subtag, err := SplitTag(strings.Join(strings.Fields(tag), " "))
	if err != nil {
		return TagKey{}, &SyntaxError{Clause: tag, Reason: err.Error()}
	}
	if subtag == "" {
		return TagKey{}, &SyntaxError{Clause: tag, Reason: "tag has no subtag"}
	}
	return TagKey{Namespace: namespace, Subtag: subtag}, nil
}
