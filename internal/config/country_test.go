package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCountry(name string) *Country {
	return &Country{
		Name:        name,
		DatasetPath: "datasets/" + name + ".csv",
		ColumnMapping: map[string]string{
			"industry":   "Industry",
			"ask_amount": "Ask",
		},
		Investors: []Investor{{Name: "Alpha", PresentColumn: "Alpha Present"}},
		ArtifactPaths: map[string]string{
			"deal":       name + "/deal.msgpack",
			"valuation":  name + "/valuation.msgpack",
			"investors":  name + "/investors.msgpack",
			"similarity": name + "/similarity.msgpack",
		},
	}
}

func TestCountry_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Country)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Country) {}},
		{
			name:    "missing name",
			mutate:  func(c *Country) { c.Name = "" },
			wantErr: "missing country name",
		},
		{
			name:    "missing dataset path",
			mutate:  func(c *Country) { c.DatasetPath = "" },
			wantErr: "missing dataset_path",
		},
		{
			name:    "missing column mapping",
			mutate:  func(c *Country) { c.ColumnMapping = nil },
			wantErr: "missing column_mapping",
		},
		{
			name: "duplicate investor",
			mutate: func(c *Country) {
				c.Investors = append(c.Investors, Investor{Name: "alpha"})
			},
			wantErr: "duplicate investor",
		},
		{
			name:    "missing artifact path",
			mutate:  func(c *Country) { delete(c.ArtifactPaths, "similarity") },
			wantErr: "no artifact path",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCountry("Testland")
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestCountry_FieldAbsent(t *testing.T) {
	c := validCountry("Testland")
	c.ColumnMapping["monthly_sales"] = "null"
	c.ColumnMapping["got_deal"] = ""

	assert.True(t, c.FieldAbsent("monthly_sales"))
	assert.True(t, c.FieldAbsent("got_deal"))
	assert.False(t, c.FieldAbsent("industry"))
	assert.False(t, c.FieldAbsent("unmapped_field"))
}

func TestRegistry_CaseInsensitiveLookup(t *testing.T) {
	reg, err := NewRegistry(validCountry("India"))
	require.NoError(t, err)

	for _, name := range []string{"India", "india", "INDIA"} {
		c, err := reg.Get(name)
		require.NoError(t, err)
		assert.Equal(t, "India", c.Name)
	}

	_, err = reg.Get("Atlantis")
	assert.ErrorIs(t, err, ErrCountryNotConfigured)
}

func TestRegistry_CountryOrdering(t *testing.T) {
	reg, err := NewRegistry(
		validCountry("Australia"),
		validCountry("US"),
		validCountry("Brazil"),
		validCountry("India"),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"India", "US", "Australia", "Brazil"}, reg.Countries())
}

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	doc := `country: Testland
dataset_path: datasets/testland.csv
column_mapping:
  industry: Industry
  ask_amount: Ask
  monthly_sales: null
sharks:
  - name: Alpha
    present_column: Alpha Present
model_paths:
  deal: testland/deal.msgpack
  valuation: testland/valuation.msgpack
  investors: testland/investors.msgpack
  similarity: testland/similarity.msgpack
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "testland.yaml"), []byte(doc), 0644))

	reg, err := LoadRegistry(dir)
	require.NoError(t, err)

	c, err := reg.Get("testland")
	require.NoError(t, err)
	assert.Equal(t, "Testland", c.Name)
	assert.Equal(t, []string{"Alpha"}, c.InvestorNames())
	assert.True(t, c.FieldAbsent("monthly_sales"))

	path, err := c.ArtifactPath(KindDeal)
	require.NoError(t, err)
	assert.Equal(t, "testland/deal.msgpack", path)
}

func TestLoadRegistry_InvalidDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("country: Broken\n"), 0644))

	_, err := LoadRegistry(dir)
	assert.Error(t, err)
}
