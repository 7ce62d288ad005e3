package inference

import (
	"fmt"
	"strings"

	"github.com/aristath/tankintel/internal/artifacts"
	"github.com/aristath/tankintel/internal/schema"
)

const industryPrefix = "industry_"

// buildInsights phrases one profile line per trained investor, in roster
// order: the historical investment rate, plus either the top industry
// preference or the single most important non-industry factor when it
// carries real weight.
func buildInsights(bundle artifacts.InvestorsBundle) []string {
	var insights []string
	for _, inv := range bundle.Investors {
		insight, ok := bundle.Insights[inv.Name]
		if !ok {
			continue
		}

		var parts []string
		var industry, keyFactor string
		var keyImportance float64
		for _, fi := range insight.TopFeatures {
			if schema.IsOutcomeVariable(fi.Feature) {
				continue
			}
			if strings.HasPrefix(fi.Feature, industryPrefix) {
				if industry == "" {
					industry = strings.ReplaceAll(strings.TrimPrefix(fi.Feature, industryPrefix), "_", " ")
				}
				continue
			}
			if keyFactor == "" {
				keyFactor = fi.Feature
				keyImportance = fi.Importance
			}
		}
		if industry != "" {
			parts = append(parts, fmt.Sprintf("prefers %s industry", industry))
		} else if keyFactor != "" && keyImportance > 0.05 {
			parts = append(parts, fmt.Sprintf("key factor: %s", titleCase(keyFactor)))
		}

		base := fmt.Sprintf("**%s**: Investment rate %.1f%%", inv.Name, insight.InvestmentRate*100)
		if len(parts) > 0 {
			insights = append(insights, fmt.Sprintf("%s. %s.", base, strings.Join(parts, ", ")))
		} else {
			insights = append(insights, fmt.Sprintf("%s. General investor profile.", base))
		}
	}
	return insights
}

// titleCase turns a snake_case feature name into a readable label.
func titleCase(feature string) string {
	words := strings.Split(strings.ReplaceAll(feature, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
