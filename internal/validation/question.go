package validation

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	TitleMaxLength = 120
	BodyMaxLength  = 50000
	TagMaxLength   = 50
	MaxTags        = 10
)

func ValidateBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return Error("body is required")
	}

	if utf8.RuneCountInString(body) > BodyMaxLength {
		return Error("body is too long (max 50000 characters)")
	}

	return nil
}

// Title returns the trimmed title, or the first non-empty line of body when
// title is blank, cut to TitleMaxLength runes.
func Title(title, body string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
			if line != "" {
				title = line
				break
			}
		}
	}

	if utf8.RuneCountInString(title) > TitleMaxLength {
		title = string([]rune(title)[:TitleMaxLength])
	}

	return title
}

// NormalizeTags trims and NFC-normalizes tag names and drops duplicates,
// keeping first-seen order. Names are otherwise compared exactly.
func NormalizeTags(names []string) ([]string, error) {
	if len(names) == 0 {
		return names, nil
	}

	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = norm.NFC.String(strings.TrimSpace(name))
		if name == "" {
			return nil, Error("tag name is required")
		}
		if utf8.RuneCountInString(name) > TagMaxLength {
			return nil, Error("tag name is too long (max 50 characters)")
		}
		if strings.ContainsAny(name, " \t\r\n/") {
			return nil, Error("tag name may not contain whitespace or '/'")
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}

	if len(out) > MaxTags {
		return nil, Error("too many tags (max 10)")
	}

	return out, nil
}
