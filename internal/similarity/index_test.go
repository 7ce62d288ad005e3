package similarity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestIndex(t *testing.T) *Index {
	t.Helper()
	docs := []string{
		"organic coffee subscription delivered monthly",
		"cold brew coffee cans for retail",
		"smart home security camera system",
		"home workout equipment and coaching",
	}
	v, err := FitVectorizer(docs, VectorizerConfig{MinDF: 1, StopWords: true, Bigrams: true})
	require.NoError(t, err)

	companies := make([]CompanyRecord, len(docs))
	names := []string{"BeanBox", "BrewCan", "SafeNest", "FitHome"}
	for i, doc := range docs {
		companies[i] = CompanyRecord{
			Name:        names[i],
			Industry:    "Consumer",
			AskAmount:   float64(100 * (i + 1)),
			AskEquity:   10,
			Description: doc,
			TextVec:     v.Transform(doc),
		}
	}
	return &Index{Vectorizer: v, Companies: companies, Country: "Testland"}
}

func TestIndex_FindRanksByCosine(t *testing.T) {
	ix := buildTestIndex(t)

	matches := ix.Find("coffee subscription", 5)
	require.NotEmpty(t, matches)

	assert.Equal(t, "BeanBox", matches[0].CompanyName)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].SimilarityScore, matches[i].SimilarityScore)
	}
}

func TestIndex_FindExcludesZeroScores(t *testing.T) {
	ix := buildTestIndex(t)

	matches := ix.Find("underwater drone photography", 5)
	assert.Empty(t, matches, "no text overlap means no matches, not zero-score filler")
}

func TestIndex_FindBlankQuery(t *testing.T) {
	ix := buildTestIndex(t)

	assert.Empty(t, ix.Find("", 5))
	assert.Empty(t, ix.Find("   ", 5))
	assert.NotNil(t, ix.Find("", 5), "blank queries return an empty slice, not nil")
}

func TestIndex_FindTopN(t *testing.T) {
	ix := buildTestIndex(t)

	matches := ix.Find("coffee home", 1)
	assert.Len(t, matches, 1)
}

func TestIndex_DescriptionPreviewTruncated(t *testing.T) {
	long := strings.Repeat("coffee roasting equipment ", 20)
	v, err := FitVectorizer([]string{long}, VectorizerConfig{MinDF: 1})
	require.NoError(t, err)

	ix := &Index{
		Vectorizer: v,
		Companies: []CompanyRecord{{
			Name:        "RoastWorks",
			Description: long,
			TextVec:     v.Transform(long),
		}},
	}

	matches := ix.Find("coffee roasting", 1)
	require.Len(t, matches, 1)
	assert.Len(t, matches[0].Description, descriptionPreviewLen+3)
	assert.True(t, strings.HasSuffix(matches[0].Description, "..."))
}

func TestIndex_FindWithoutVectorizer(t *testing.T) {
	ix := &Index{}
	assert.Empty(t, ix.Find("anything", 5))
}
