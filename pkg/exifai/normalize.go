package exifai

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/samber/lo"

	"github.com/tstromberg/exifai/pkg/provider"
)

var (
	lineBreaks    = regexp.MustCompile(`[\n\r]+`)
	numberedLine  = regexp.MustCompile(`^\d+`)
	leadingNumber = regexp.MustCompile(`^\d+\s+`)
	placeholders  = regexp.MustCompile(`tag\d+`)
	noise         = regexp.MustCompile(`[\[\].{}<>/*'"()。]`)
	colons        = regexp.MustCompile(`[：:]`)
)

// NormalizeTags turns a raw provider response into an ordered list of unique tags.
// A response that is already a list is returned as-is.
func NormalizeTags(raw provider.Output) []string {
	if raw.Items != nil {
		return raw.Items
	}
	return ParseTags(raw.Text)
}

// ParseTags extracts tags from free text. It never fails: unrecognized input
// yields whatever tag-like pieces survive, possibly none.
func ParseTags(text string) []string {
	var tags []string
	if lines := numberedLines(text); len(lines) > 1 {
		tags = parseNumbered(lines)
	} else {
		tags = parseInline(text)
	}
	return lo.Uniq(tags)
}

func numberedLines(text string) []string {
	return lo.Filter(lineBreaks.Split(text, -1), func(l string, _ int) bool {
		return numberedLine.MatchString(l)
	})
}

// parseNumbered handles "1. foo\n2. bar" style lists, one tag per line.
func parseNumbered(lines []string) []string {
	tags := []string{}
	for _, l := range lines {
		l = placeholders.ReplaceAllString(l, "")
		l = noise.ReplaceAllString(l, "")
		l = numberedLine.ReplaceAllString(l, "")
		l = colons.ReplaceAllString(l, "")
		l = strings.Join(strings.Fields(l), " ")
		if l != "" {
			tags = append(tags, l)
		}
	}
	return tags
}

// parseInline handles "preamble: a, b, c" responses in either full-width or
// half-width punctuation.
func parseInline(text string) []string {
	cleaned := placeholders.ReplaceAllString(text, "")
	cleaned = noise.ReplaceAllString(cleaned, "")

	colon := ":"
	if strings.Contains(cleaned, "：") {
		colon = "："
	}
	if i := strings.LastIndex(cleaned, colon); i >= 0 {
		cleaned = cleaned[i+len(colon):]
	}

	tags := []string{}
	for _, s := range strings.Split(cleaned, itemSeparator(cleaned)) {
		s = strings.TrimSpace(s)
		s = strings.TrimSuffix(s, "\n")
		s = leadingNumber.ReplaceAllString(s, "")
		s = colons.ReplaceAllString(s, "")
		if s == "" || s == "\n" {
			continue
		}
		// Anything with more than one space is most likely a fragment of prose.
		if countSpaces(s) > 1 {
			continue
		}
		tags = append(tags, s)
	}
	return tags
}

func itemSeparator(text string) string {
	switch {
	case strings.Contains(text, "，"):
		return "，"
	case strings.Contains(text, ","):
		return ","
	default:
		return "\n"
	}
}

func countSpaces(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
