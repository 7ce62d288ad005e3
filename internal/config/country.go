package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrCountryNotConfigured is returned when a requested country has no
// configuration document. Fatal to any operation for that country.
var ErrCountryNotConfigured = errors.New("country not configured")

// Prediction kinds, used as artifact keys in country documents and the
// artifact store.
const (
	KindDeal       = "deal"
	KindValuation  = "valuation"
	KindInvestors  = "investors"
	KindSimilarity = "similarity"
)

// Kinds lists every prediction kind an artifact can exist for.
func Kinds() []string {
	return []string{KindDeal, KindValuation, KindInvestors, KindSimilarity}
}

// Investor describes one investor in a country's roster.
type Investor struct {
	Name             string `yaml:"name"`
	PresentColumn    string `yaml:"present_column"`
	InvestmentAmount string `yaml:"investment_amount"`
	InvestmentEquity string `yaml:"investment_equity"`
}

// Country is the strongly typed per-country configuration document.
// Documents are validated eagerly at load time so schema mistakes fail
// fast instead of deep inside feature encoding.
type Country struct {
	Name        string            `yaml:"country"`
	DatasetPath string            `yaml:"dataset_path"`
	// ColumnMapping maps canonical field name to raw column name.
	// An empty or "null" value marks the field as structurally absent
	// for this country (emitted as the constant 0, not as missing).
	ColumnMapping map[string]string `yaml:"column_mapping"`
	Investors     []Investor        `yaml:"sharks"`
	ArtifactPaths map[string]string `yaml:"model_paths"`
}

// ID returns the case-normalized country identifier used for lookups.
func (c *Country) ID() string { return strings.ToLower(c.Name) }

// FieldAbsent reports whether a canonical field is declared structurally
// absent for this country.
func (c *Country) FieldAbsent(canonical string) bool {
	raw, ok := c.ColumnMapping[canonical]
	return ok && (raw == "" || strings.EqualFold(raw, "null"))
}

// InvestorNames returns the roster names in declared order.
func (c *Country) InvestorNames() []string {
	names := make([]string, len(c.Investors))
	for i, s := range c.Investors {
		names[i] = s.Name
	}
	return names
}

// ArtifactPath returns the artifact location for a prediction kind.
func (c *Country) ArtifactPath(kind string) (string, error) {
	path, ok := c.ArtifactPaths[kind]
	if !ok || path == "" {
		return "", fmt.Errorf("country %s has no artifact path for kind %q", c.Name, kind)
	}
	return path, nil
}

// Validate checks that all required fields are present.
func (c *Country) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("country document missing country name")
	}
	if c.DatasetPath == "" {
		return fmt.Errorf("country %s: missing dataset_path", c.Name)
	}
	if len(c.ColumnMapping) == 0 {
		return fmt.Errorf("country %s: missing column_mapping", c.Name)
	}
	seen := make(map[string]bool, len(c.Investors))
	for _, s := range c.Investors {
		if s.Name == "" {
			return fmt.Errorf("country %s: investor with empty name", c.Name)
		}
		key := strings.ToLower(s.Name)
		if seen[key] {
			return fmt.Errorf("country %s: duplicate investor %q", c.Name, s.Name)
		}
		seen[key] = true
	}
	for _, kind := range Kinds() {
		if _, err := c.ArtifactPath(kind); err != nil {
			return err
		}
	}
	return nil
}

// Registry holds every country configuration discovered at startup.
// It is immutable after construction and passed by reference to the
// inference facade; there is no on-demand global cache.
type Registry struct {
	countries map[string]*Country
	order     []string // display names, preferred-country-first
}

// LoadRegistry reads every *.yaml document in dir and validates each one.
// A malformed document is a hard configuration error.
func LoadRegistry(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read country config directory %s: %w", dir, err)
	}

	reg := &Registry{countries: make(map[string]*Country)}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		country, err := loadCountry(path)
		if err != nil {
			return nil, err
		}
		reg.countries[country.ID()] = country
		reg.order = append(reg.order, country.Name)
	}

	sortCountries(reg.order)
	return reg, nil
}

// NewRegistry builds a registry from already-constructed documents,
// mainly for tests.
func NewRegistry(countries ...*Country) (*Registry, error) {
	reg := &Registry{countries: make(map[string]*Country)}
	for _, c := range countries {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		reg.countries[c.ID()] = c
		reg.order = append(reg.order, c.Name)
	}
	sortCountries(reg.order)
	return reg, nil
}

// Get resolves a country by name, case-insensitively.
func (r *Registry) Get(country string) (*Country, error) {
	c, ok := r.countries[strings.ToLower(country)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCountryNotConfigured, country)
	}
	return c, nil
}

// Countries returns the available country display names, ordered with the
// preferred countries first (India, then US), then lexicographically.
func (r *Registry) Countries() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func sortCountries(names []string) {
	rank := func(name string) int {
		switch strings.ToLower(name) {
		case "india":
			return 0
		case "us":
			return 1
		}
		return 2
	}
	sort.SliceStable(names, func(i, j int) bool {
		ri, rj := rank(names[i]), rank(names[j])
		if ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})
}

func loadCountry(path string) (*Country, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read country config %s: %w", path, err)
	}
	var country Country
	if err := yaml.Unmarshal(raw, &country); err != nil {
		return nil, fmt.Errorf("failed to parse country config %s: %w", path, err)
	}
	if err := country.Validate(); err != nil {
		return nil, fmt.Errorf("invalid country config %s: %w", path, err)
	}
	return &country, nil
}
