package segment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// HeadingMatcher decides whether a line opens a new section.
type HeadingMatcher interface {
	IsHeading(line string) bool
}

// HeadingFunc adapts a plain function to HeadingMatcher.
type HeadingFunc func(line string) bool

func (f HeadingFunc) IsHeading(line string) bool {
	return f(line)
}

var (
	numberedHeading = regexp.MustCompile(`^\d+(\.\d+)*\.?\s`)
	keywordHeading  = regexp.MustCompile(`(?i)^(chapter|module|unit|section|lesson|part)\s+([0-9]+|[ivxlcdm]+)\b`)
)

// NumberedHeading matches lines such as "1. Introduction" or "2.1 Concepts".
func NumberedHeading() HeadingMatcher {
	return HeadingFunc(func(line string) bool {
		return numberedHeading.MatchString(strings.TrimSpace(line))
	})
}

// KeywordHeading matches lines such as "Chapter 3" or "Module IV: Sorting".
func KeywordHeading() HeadingMatcher {
	return HeadingFunc(func(line string) bool {
		return keywordHeading.MatchString(strings.TrimSpace(line))
	})
}

// UppercaseHeading matches short lines written entirely in capitals.
// The trimmed line must be longer than 4 and shorter than maxLen characters
// and contain at least one cased letter.
func UppercaseHeading(maxLen int) HeadingMatcher {
	return HeadingFunc(func(line string) bool {
		line = strings.TrimSpace(line)
		n := utf8.RuneCountInString(line)
		if n <= 4 || n >= maxLen {
			return false
		}
		cased := false
		for _, r := range line {
			if unicode.IsLower(r) {
				return false
			}
			if unicode.IsUpper(r) || unicode.IsTitle(r) {
				cased = true
			}
		}
		return cased
	})
}

// DefaultHeadingMatchers returns the numbered, uppercase and keyword matchers.
func DefaultHeadingMatchers(maxHeadingLen int) []HeadingMatcher {
	return []HeadingMatcher{
		NumberedHeading(),
		UppercaseHeading(maxHeadingLen),
		KeywordHeading(),
	}
}
