// Package textnorm produces the normalized, stopword-free text used for word
// frequencies and downstream models.
package textnorm

import (
	"bufio"
	_ "embed"
	"regexp"
	"sort"
	"strings"
)

//go:embed stopwords_es.txt
var spanishStopwords string

var (
	urlRe    = regexp.MustCompile(`http\S+|www.\S+`)
	digitRe  = regexp.MustCompile(`\p{Nd}+`)
	punctRe  = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	spacesRe = regexp.MustCompile(`\s+`)
)

// Normalizer cleans text and filters a fixed stopword set.
type Normalizer struct {
	stopwords map[string]struct{}
}

// New returns a Normalizer using the embedded Spanish stopword list plus
// any extra words.
func New(extra ...string) *Normalizer {
	n := NewWithStopwords(nil)
	sc := bufio.NewScanner(strings.NewReader(spanishStopwords))
	for sc.Scan() {
		if w := strings.TrimSpace(sc.Text()); w != "" {
			n.stopwords[w] = struct{}{}
		}
	}
	for _, w := range extra {
		n.stopwords[strings.ToLower(w)] = struct{}{}
	}
	return n
}

// NewWithStopwords returns a Normalizer filtering exactly words.
func NewWithStopwords(words []string) *Normalizer {
	n := &Normalizer{stopwords: make(map[string]struct{}, len(words))}
	for _, w := range words {
		n.stopwords[strings.ToLower(w)] = struct{}{}
	}
	return n
}

// Normalize lowercases s and strips URLs, digits and punctuation, keeping
// letters (accented ones included) and collapsing whitespace.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = urlRe.ReplaceAllString(s, "")
	s = digitRe.ReplaceAllString(s, "")
	s = punctRe.ReplaceAllString(s, "")
	s = spacesRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// IsStopword reports whether w, already lowercased, is filtered.
func (n *Normalizer) IsStopword(w string) bool {
	_, ok := n.stopwords[w]
	return ok
}

// RemoveStopwords drops stopwords from whitespace-separated s.
func (n *Normalizer) RemoveStopwords(s string) string {
	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if !n.IsStopword(w) {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// Clean normalizes s and removes stopwords.
func (n *Normalizer) Clean(s string) string {
	return n.RemoveStopwords(Normalize(s))
}

// WordFreq is a word and its number of occurrences.
type WordFreq struct {
	Word  string
	Count int
}

// TopWords counts the words of the cleaned texts and returns the limit most
// frequent, ties broken alphabetically. texts are cleaned with Clean first.
func (n *Normalizer) TopWords(texts []string, limit int) []WordFreq {
	counts := make(map[string]int)
	for _, t := range texts {
		for _, w := range strings.Fields(n.Clean(t)) {
			counts[w]++
		}
	}

	freqs := make([]WordFreq, 0, len(counts))
	for w, c := range counts {
		freqs = append(freqs, WordFreq{Word: w, Count: c})
	}
	sort.Slice(freqs, func(i, j int) bool {
		if freqs[i].Count != freqs[j].Count {
			return freqs[i].Count > freqs[j].Count
		}
		return freqs[i].Word < freqs[j].Word
	})

	if limit > 0 && len(freqs) > limit {
		freqs = freqs[:limit]
	}
	return freqs
}
