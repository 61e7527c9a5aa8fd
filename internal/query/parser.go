package query

import (
	"strings"
)

// Parse converts raw query clauses into predicates, one per clause, in input
// order. Members of an "or:" group nest inside their OrPredicate.
//
// An empty clause list yields an empty predicate list, which matches
// everything.
func Parse(clauses []string) ([]Predicate, error) {
	predicates := make([]Predicate, 0, len(clauses))
	for _, clause := range clauses {
		p, err := parseClause(clause)
		if err != nil {
			return nil, err
		}
		predicates = append(predicates, p)
	}
	return predicates, nil
}

func parseClause(raw string) (Predicate, error) {
	clause := normalizeClause(raw)
	if clause == "" {
		return nil, syntaxError(raw, "clause is empty")
	}

	switch {
	case strings.HasPrefix(clause, systemPrefix):
		return parseSystem(clause), nil
	case strings.HasPrefix(clause, orPrefix):
		return parseOr(clause)
	default:
		return parseTag(clause)
	}
}

// normalizeClause trims the clause, collapses whitespace runs to one space and
// collapses runs of wildcards to one wildcard.
func normalizeClause(raw string) string {
	clause := strings.Join(strings.Fields(raw), " ")
	return collapseWildcards(clause)
}

func collapseWildcards(s string) string {
	if !strings.Contains(s, "**") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	prevWildcard := false
	for _, r := range s {
		if r == Wildcard {
			if prevWildcard {
				continue
			}
			prevWildcard = true
		} else {
			prevWildcard = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func parseSystem(clause string) SystemPredicate {
	body := strings.TrimSpace(strings.TrimPrefix(clause, systemPrefix))
	name, expr, _ := strings.Cut(body, " ")

	switch strings.ToLower(name) {
	case "everything":
		if expr == "" {
			return EverythingPredicate{}
		}
	case "filesize":
		return FilesizePredicate{Expression: strings.TrimSpace(expr)}
	case "dimensions":
		return DimensionsPredicate{Expression: strings.TrimSpace(expr)}
	}
	return UnknownSystemPredicate{Name: body}
}

func parseOr(clause string) (Predicate, error) {
	body := strings.TrimSpace(strings.TrimPrefix(clause, orPrefix))
	if body == "" {
		return nil, syntaxError(clause, "or group has no members")
	}

	parts, err := splitOr(clause, body)
	if err != nil {
		return nil, err
	}

	group := OrPredicate{Predicates: make([]Predicate, 0, len(parts))}
	for _, part := range parts {
		member, err := stripGrouping(clause, part)
		if err != nil {
			return nil, err
		}
		if member == "" {
			return nil, syntaxError(clause, "or group has an empty member")
		}

		p, err := parseClause(member)
		if err != nil {
			return nil, err
		}
		group.Predicates = append(group.Predicates, p)
	}
	return group, nil
}

// splitOr splits body on OrSeparator wherever it is not inside parentheses.
func splitOr(clause, body string) ([]string, error) {
	var parts []string
	depth := 0
	start := 0

	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, syntaxError(clause, "unmatched ')'")
			}
		case ' ':
			if depth == 0 && strings.HasPrefix(body[i:], OrSeparator) {
				parts = append(parts, strings.TrimSpace(body[start:i]))
				i += len(OrSeparator) - 1
				start = i + 1
			}
		}
	}

	if depth != 0 {
		return nil, syntaxError(clause, "unmatched '('")
	}
	return append(parts, strings.TrimSpace(body[start:])), nil
}

// stripGrouping removes parentheses wrapping the whole of part.
func stripGrouping(clause, part string) (string, error) {
	for strings.HasPrefix(part, "(") {
		closing := matchingParen(part)
		if closing < 0 {
			return "", syntaxError(clause, "unmatched '('")
		}
		if closing != len(part)-1 {
			// "(a) b": the parentheses do not wrap the whole member.
			return part, nil
		}
		part = strings.TrimSpace(part[1:closing])
	}
	return part, nil
}

// matchingParen returns the index of the parenthesis closing s[0], or -1.
func matchingParen(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func parseTag(clause string) (Predicate, error) {
	exclusive := false
	body := clause
	if body[0] == Negation {
		exclusive = true
		body = strings.TrimSpace(body[1:])
	}

	namespace, subtag, err := SplitTag(body)
	if err != nil {
		return nil, syntaxError(clause, "%v", err)
	}
	if subtag == "" {
		return nil, syntaxError(clause, "tag has no subtag")
	}

	return TagPredicate{
		NamespacePattern: namespace,
		SubtagPattern:    subtag,
		IsExclusive:      exclusive,
	}, nil
}
