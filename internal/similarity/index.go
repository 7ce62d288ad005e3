// Package similarity implements the company similarity index: a TF-IDF
// vectorizer over business descriptions plus the per-company vectors it was
// fit on, queried by cosine similarity.
package similarity

import (
	"sort"
	"strings"
)

// CompanyRecord is one indexed company with its precomputed description
// vector. NumericVec carries the scaled numeric profile alongside the text
// vector for future blended scoring; ranking today is text-only.
type CompanyRecord struct {
	Name        string    `msgpack:"name"`
	Industry    string    `msgpack:"industry"`
	AskAmount   float64   `msgpack:"ask_amount"`
	AskEquity   float64   `msgpack:"ask_equity"`
	Description string    `msgpack:"description"`
	TextVec     []float64 `msgpack:"text_vec"`
	NumericVec  []float64 `msgpack:"numeric_vec"`
}

// Index is the persisted similarity artifact for one country.
type Index struct {
	Vectorizer     *Vectorizer     `msgpack:"vectorizer"`
	NumericColumns []string        `msgpack:"numeric_columns"`
	NumericMeans   []float64       `msgpack:"numeric_means"`
	NumericStds    []float64       `msgpack:"numeric_stds"`
	Companies      []CompanyRecord `msgpack:"companies"`
	Country        string          `msgpack:"country"`
}

// Match is one similar company returned by a query.
type Match struct {
	CompanyName     string  `json:"company_name"`
	Industry        string  `json:"industry"`
	AskAmount       float64 `json:"ask_amount"`
	AskEquity       float64 `json:"ask_equity"`
	SimilarityScore float64 `json:"similarity_score"`
	Description     string  `json:"description"`
}

const descriptionPreviewLen = 200

// Find returns up to topN indexed companies ranked by descending cosine
// similarity to the query description. Blank queries and companies with no
// overlap score zero and are excluded.
func (ix *Index) Find(description string, topN int) []Match {
	if strings.TrimSpace(description) == "" || ix.Vectorizer == nil {
		return []Match{}
	}
	query := ix.Vectorizer.Transform(description)

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(ix.Companies))
	for i, c := range ix.Companies {
		ranked[i] = scored{idx: i, score: Cosine(query, c.TextVec)}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	if topN > len(ranked) {
		topN = len(ranked)
	}
	matches := []Match{}
	for _, r := range ranked[:topN] {
		if r.score <= 0 {
			continue
		}
		c := ix.Companies[r.idx]
		matches = append(matches, Match{
			CompanyName:     c.Name,
			Industry:        c.Industry,
			AskAmount:       c.AskAmount,
			AskEquity:       c.AskEquity,
			SimilarityScore: r.score,
			Description:     previewDescription(c.Description),
		})
	}
	return matches
}

func previewDescription(desc string) string {
	if len(desc) > descriptionPreviewLen {
		return desc[:descriptionPreviewLen] + "..."
	}
	return desc
}
