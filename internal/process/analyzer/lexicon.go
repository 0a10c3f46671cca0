package analyzer

import (
	_ "embed"
	"strconv"
	"strings"

	"github.com/kljensen/snowball/english"
)

// afinnRaw is a subset of the AFINN-165 word list, one "word<TAB>score" per line.
//
//go:embed afinn.txt
var afinnRaw string

// Maximum absolute AFINN polarity, used to normalize averages into [-1, 1].
const maxPolarity = 5.0

type lexicon struct {
	words   map[string]int
	stemmed map[string]int
}

var polarity = loadLexicon(afinnRaw)

func loadLexicon(raw string) lexicon {
	lx := lexicon{
		words:   make(map[string]int),
		stemmed: make(map[string]int),
	}

	for _, line := range strings.Split(raw, "\n") {
		word, score, ok := strings.Cut(strings.TrimSpace(line), "\t")
		if !ok {
			continue
		}

		value, err := strconv.Atoi(strings.TrimSpace(score))
		if err != nil {
			continue
		}

		lx.words[word] = value

		stem := english.Stem(word, false)
		if _, exists := lx.stemmed[stem]; !exists {
			lx.stemmed[stem] = value
		}
	}

	return lx
}

// score looks up a folded token, falling back to its stem.
func (lx lexicon) score(token, stem string) (int, bool) {
	if v, ok := lx.words[token]; ok {
		return v, true
	}

	v, ok := lx.stemmed[stem]

	return v, ok
}

var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "neither": {}, "nobody": {}, "none": {},
	"nothing": {}, "nowhere": {}, "n't": {}, "cannot": {}, "dont": {}, "doesnt": {},
	"isnt": {}, "wont": {}, "cant": {},
}

// stopWords mirrors the classic English stop-word list used for keyword extraction.
var stopWords = toSet(
	"about", "above", "after", "again", "all", "also", "am", "an", "and", "another", "any", "are",
	"as", "at", "be", "because", "been", "before", "being", "below", "between", "both", "but", "by",
	"came", "can", "come", "could", "did", "do", "does", "doing", "down", "during", "each", "few",
	"for", "from", "further", "get", "got", "had", "has", "have", "having", "he", "her", "here",
	"hers", "herself", "him", "himself", "his", "how", "i", "if", "in", "into", "is", "it", "its",
	"itself", "just", "like", "make", "many", "me", "might", "more", "most", "much", "must", "my",
	"myself", "never", "now", "of", "off", "on", "once", "only", "or", "other", "our", "ours",
	"ourselves", "out", "over", "own", "said", "same", "see", "she", "should", "since", "so",
	"some", "still", "such", "take", "than", "that", "the", "their", "theirs", "them",
	"themselves", "then", "there", "these", "they", "this", "those", "through", "to", "too",
	"under", "until", "up", "very", "was", "way", "we", "well", "were", "what", "when", "where",
	"which", "while", "who", "whom", "why", "will", "with", "would", "you", "your", "yours",
	"yourself", "yourselves", "a", "s", "t", "n't", "'s", "'re", "'ve", "'ll", "'d", "'m",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}

	return set
}
