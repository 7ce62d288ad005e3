package similarity

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
)

// Vectorizer is a TF-IDF text vectorizer over unigrams and bigrams with
// English stop-word removal and smoothed inverse document frequencies.
// Output vectors are l2-normalized.
type Vectorizer struct {
	Vocabulary []string  `msgpack:"vocabulary"`
	Idf        []float64 `msgpack:"idf"`

	index map[string]int
}

// VectorizerConfig controls vocabulary construction.
type VectorizerConfig struct {
	MaxFeatures int // cap on vocabulary size; 0 means unlimited
	MinDF       int // minimum document frequency; 0 picks 1
	StopWords   bool
	Bigrams     bool
}

// DefaultVectorizerConfig matches the description-index settings used for
// company similarity.
func DefaultVectorizerConfig() VectorizerConfig {
	return VectorizerConfig{MaxFeatures: 100, MinDF: 2, StopWords: true, Bigrams: true}
}

// FitVectorizer learns the vocabulary and IDF weights from a document
// corpus. It errors when no term survives the document-frequency cutoff,
// which happens on corpora of empty descriptions.
func FitVectorizer(docs []string, cfg VectorizerConfig) (*Vectorizer, error) {
	minDF := cfg.MinDF
	if minDF <= 0 {
		minDF = 1
	}

	docFreq := map[string]int{}
	termFreq := map[string]int{}
	for _, doc := range docs {
		terms := extractTerms(doc, cfg)
		seen := map[string]bool{}
		for _, t := range terms {
			termFreq[t]++
			if !seen[t] {
				seen[t] = true
				docFreq[t]++
			}
		}
	}

	var kept []string
	for term, df := range docFreq {
		if df >= minDF {
			kept = append(kept, term)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("vectorizer fit produced an empty vocabulary")
	}

	if cfg.MaxFeatures > 0 && len(kept) > cfg.MaxFeatures {
		sort.Slice(kept, func(a, b int) bool {
			if termFreq[kept[a]] != termFreq[kept[b]] {
				return termFreq[kept[a]] > termFreq[kept[b]]
			}
			return kept[a] < kept[b]
		})
		kept = kept[:cfg.MaxFeatures]
	}
	sort.Strings(kept)

	n := float64(len(docs))
	idf := make([]float64, len(kept))
	for i, term := range kept {
		idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	v := &Vectorizer{Vocabulary: kept, Idf: idf}
	v.buildIndex()
	return v, nil
}

// Transform maps a document onto the learned vocabulary as an
// l2-normalized TF-IDF vector.
func (v *Vectorizer) Transform(doc string) []float64 {
	if v.index == nil {
		v.buildIndex()
	}
	out := make([]float64, len(v.Vocabulary))
	cfg := VectorizerConfig{StopWords: true, Bigrams: true}
	for _, term := range extractTerms(doc, cfg) {
		if i, ok := v.index[term]; ok {
			out[i]++
		}
	}
	var norm float64
	for i := range out {
		out[i] *= v.Idf[i]
		norm += out[i] * out[i]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range out {
			out[i] /= norm
		}
	}
	return out
}

func (v *Vectorizer) buildIndex() {
	v.index = make(map[string]int, len(v.Vocabulary))
	for i, term := range v.Vocabulary {
		v.index[term] = i
	}
}

// extractTerms tokenizes a document into lowercase word tokens of two or
// more characters, drops stop words, and appends adjacent-pair bigrams.
func extractTerms(doc string, cfg VectorizerConfig) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() >= 2 {
			tok := cur.String()
			if !cfg.StopWords || !stopWords[tok] {
				tokens = append(tokens, tok)
			}
		}
		cur.Reset()
	}
	for _, r := range strings.ToLower(doc) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	if !cfg.Bigrams {
		return tokens
	}
	terms := make([]string, 0, 2*len(tokens))
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}

// Cosine is the cosine similarity of two equal-length vectors, zero when
// either has no magnitude.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
