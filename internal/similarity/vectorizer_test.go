package similarity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitVectorizer_MinDF(t *testing.T) {
	docs := []string{
		"organic coffee beans",
		"organic tea leaves",
		"premium coffee roaster",
	}

	v, err := FitVectorizer(docs, VectorizerConfig{MinDF: 2, StopWords: true, Bigrams: true})
	require.NoError(t, err)

	// Terms in at least two documents survive; the rest are cut.
	assert.Contains(t, v.Vocabulary, "organic")
	assert.Contains(t, v.Vocabulary, "coffee")
	assert.NotContains(t, v.Vocabulary, "tea")
	assert.NotContains(t, v.Vocabulary, "roaster")
}

func TestFitVectorizer_MaxFeatures(t *testing.T) {
	docs := []string{
		"alpha beta gamma delta",
		"alpha beta gamma delta",
	}

	v, err := FitVectorizer(docs, VectorizerConfig{MaxFeatures: 3, MinDF: 1})
	require.NoError(t, err)
	assert.Len(t, v.Vocabulary, 3)
}

func TestFitVectorizer_EmptyVocabularyErrors(t *testing.T) {
	_, err := FitVectorizer([]string{"", "  ", ""}, DefaultVectorizerConfig())
	assert.Error(t, err)

	// A stop-word-only corpus also yields nothing.
	_, err = FitVectorizer([]string{"the and of", "the and of"}, DefaultVectorizerConfig())
	assert.Error(t, err)
}

func TestVectorizer_SmoothedIdf(t *testing.T) {
	docs := []string{"coffee shop", "coffee truck", "coffee cart"}
	v, err := FitVectorizer(docs, VectorizerConfig{MinDF: 1})
	require.NoError(t, err)

	var coffeeIdf float64
	for i, term := range v.Vocabulary {
		if term == "coffee" {
			coffeeIdf = v.Idf[i]
		}
	}
	// ln((1+3)/(1+3)) + 1
	assert.InDelta(t, 1.0, coffeeIdf, 1e-9)
}

func TestVectorizer_TransformIsL2Normalized(t *testing.T) {
	docs := []string{"solar panels for homes", "solar chargers for camping"}
	v, err := FitVectorizer(docs, VectorizerConfig{MinDF: 1, StopWords: true, Bigrams: true})
	require.NoError(t, err)

	vec := v.Transform("solar panels")
	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	assert.InDelta(t, 1.0, norm, 1e-9)

	// A document with no vocabulary overlap stays the zero vector.
	zero := v.Transform("quantum blockchain")
	for _, x := range zero {
		assert.Equal(t, 0.0, x)
	}
}

func TestExtractTerms(t *testing.T) {
	cfg := VectorizerConfig{StopWords: true, Bigrams: true}
	terms := extractTerms("The eco-friendly water bottles!", cfg)

	assert.Contains(t, terms, "eco")
	assert.Contains(t, terms, "friendly")
	assert.Contains(t, terms, "water")
	assert.Contains(t, terms, "bottles")
	assert.Contains(t, terms, "water bottles")
	assert.NotContains(t, terms, "the", "stop words are dropped")

	unigrams := extractTerms("water bottles", VectorizerConfig{})
	assert.Equal(t, []string{"water", "bottles"}, unigrams)
}

func TestExtractTerms_ShortTokensDropped(t *testing.T) {
	terms := extractTerms("a b ab", VectorizerConfig{})
	assert.Equal(t, []string{"ab"}, terms)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float64{1, 0}, []float64{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float64{0, 0}, []float64{1, 1}))
	assert.Equal(t, 0.0, Cosine([]float64{1}, []float64{1, 2}))

	v := Cosine([]float64{1, 1}, []float64{1, 0})
	assert.InDelta(t, 1/math.Sqrt2, v, 1e-9)
}
