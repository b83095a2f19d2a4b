// Package signer derives Avalanche keys from a BIP39 mnemonic and signs
// unsigned transfer legs with them.
package signer

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/tyler-smith/go-bip39"

	earnerr "github.com/mrz1836/sigil-earn/pkg/errors"
)

// MaxTypoDistance is the largest edit distance offered as a correction.
const MaxTypoDistance = 2

//nolint:gochecknoglobals // compiled once
var (
	whitespaceRegex   = regexp.MustCompile(`\s+`)
	numberedListRegex = regexp.MustCompile(`(?m)^\s*\d+[\.\)\:]\s*`)
	bulletListRegex   = regexp.MustCompile(`(?m)^\s*[-*•]\s*`)
)

// NormalizeMnemonic lowercases the phrase, strips list numbering, bullets
// and commas, and collapses whitespace to single spaces.
func NormalizeMnemonic(input string) string {
	input = strings.ToLower(input)
	input = numberedListRegex.ReplaceAllString(input, " ")
	input = bulletListRegex.ReplaceAllString(input, " ")
	input = strings.ReplaceAll(input, ",", " ")
	input = whitespaceRegex.ReplaceAllString(input, " ")
	return strings.TrimSpace(input)
}

// ValidateMnemonic checks word count, word list membership and checksum.
// Misspelled words are reported in the error suggestion.
func ValidateMnemonic(mnemonic string) error {
	normalized := NormalizeMnemonic(mnemonic)
	words := strings.Fields(normalized)
	if len(words) != 12 && len(words) != 24 {
		return earnerr.WithDetails(earnerr.ErrInvalidMnemonic, map[string]string{
			"words": fmt.Sprintf("%d", len(words)),
		})
	}
	if bip39.IsMnemonicValid(normalized) {
		return nil
	}
	if typos := DetectTypos(normalized); len(typos) > 0 {
		return earnerr.WithSuggestion(earnerr.ErrInvalidMnemonic, FormatTypos(typos))
	}
	return earnerr.WithSuggestion(earnerr.ErrInvalidMnemonic, "checksum mismatch: one or more words are in the wrong order")
}

// Typo is a word missing from the BIP39 list and its closest match.
type Typo struct {
	Index      int // 0-based word position
	Word       string
	Suggestion string // empty when nothing is close enough
}

// SuggestWord returns the closest BIP39 word within MaxTypoDistance.
func SuggestWord(input string) string {
	input = strings.ToLower(input)
	best, bestDist := "", math.MaxInt
	for _, w := range bip39.GetWordList() {
		d := levenshtein.ComputeDistance(input, w)
		if d == 0 {
			return w
		}
		if d < bestDist {
			best, bestDist = w, d
		}
	}
	if bestDist <= MaxTypoDistance {
		return best
	}
	return ""
}

// DetectTypos lists every word of the phrase that is not a BIP39 word.
func DetectTypos(mnemonic string) []Typo {
	wordList := bip39.GetWordList()
	var typos []Typo
	for i, w := range strings.Fields(NormalizeMnemonic(mnemonic)) {
		if slices.Contains(wordList, w) {
			continue
		}
		typos = append(typos, Typo{Index: i, Word: w, Suggestion: SuggestWord(w)})
	}
	return typos
}

// FormatTypos renders typos one per line with 1-based word positions.
func FormatTypos(typos []Typo) string {
	lines := make([]string, 0, len(typos))
	for _, t := range typos {
		if t.Suggestion != "" {
			lines = append(lines, fmt.Sprintf("word %d: '%s' - did you mean '%s'?", t.Index+1, t.Word, t.Suggestion))
			continue
		}
		lines = append(lines, fmt.Sprintf("word %d: '%s' is not a valid BIP39 word", t.Index+1, t.Word))
	}
	return strings.Join(lines, "\n")
}
