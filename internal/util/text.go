// Package util provides utility functions.
package util

import (
	"strings"

	"golang.org/x/text/width"
)

// hiraganaStart is the start of the hiragana Unicode block.
const hiraganaStart = 0x3040

// hiraganaEnd is the end of the hiragana Unicode block.
const hiraganaEnd = 0x309F

// katakanaStart is the start of the katakana Unicode block.
const katakanaStart = 0x30A0

// kanaOffset is the offset between hiragana and katakana.
const kanaOffset = katakanaStart - hiraganaStart

// NormalizeKey folds full-width ASCII to half-width and half-width
// katakana to full-width, then trims spaces (including U+3000).
// "中２" becomes "中2".
func NormalizeKey(s string) string {
	return strings.TrimSpace(width.Fold.String(s))
}

// HiraganaToKatakana converts all hiragana characters to katakana.
func HiraganaToKatakana(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r >= hiraganaStart && r <= hiraganaEnd {
			result.WriteRune(r + kanaOffset)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// NormalizeForComparison normalizes a string for loose matching.
// Width differences, hiragana/katakana and ASCII case are ignored.
func NormalizeForComparison(s string) string {
	return strings.ToLower(HiraganaToKatakana(NormalizeKey(s)))
}

// ContainsNormalized reports whether keyword occurs in text after both
// are normalized with NormalizeForComparison.
func ContainsNormalized(text, keyword string) bool {
	return strings.Contains(NormalizeForComparison(text), NormalizeForComparison(keyword))
}

// SplitList splits a comma separated query value. Both "," and the
// Japanese "、" separate items; blanks are dropped.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '、'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = NormalizeKey(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
