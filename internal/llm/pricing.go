package llm

import "strings"

// Price is a model's list price in USD per million tokens.
type Price struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost returns the USD cost of one call.
func (p Price) Cost(inputTokens, outputTokens int) float64 {
	return (float64(inputTokens)*p.InputPerMTok + float64(outputTokens)*p.OutputPerMTok) / 1e6
}

// prices is keyed by model family. Dated or numbered snapshots and the
// "-latest", "-exp" and "-preview" aliases resolve to the longest matching
// family prefix.
var prices = map[string]Price{
	"claude-3-haiku":    {0.25, 1.25},
	"claude-3-5-haiku":  {0.8, 4},
	"claude-3-5-sonnet": {3, 15},
	"claude-3-7-sonnet": {3, 15},
	"claude-haiku-4-5":  {1, 5},
	"claude-sonnet-4":   {3, 15},
	"claude-opus-4":     {15, 75},
	"claude-opus-4-5":   {5, 25},
	"claude-opus-4-6":   {5, 25},

	"gpt-4o":       {2.5, 10},
	"gpt-4o-mini":  {0.15, 0.6},
	"gpt-4.1":      {2, 8},
	"gpt-4.1-mini": {0.4, 1.6},
	"gpt-4.1-nano": {0.1, 0.4},
	"gpt-5":        {1.25, 10},
	"gpt-5-mini":   {0.25, 2},
	"gpt-5-nano":   {0.05, 0.4},
	"o3":           {2, 8},
	"o3-mini":      {1.1, 4.4},
	"o4-mini":      {1.1, 4.4},

	"gemini-1.5-flash":      {0.075, 0.3},
	"gemini-1.5-pro":        {1.25, 5},
	"gemini-2.0-flash":      {0.1, 0.4},
	"gemini-2.0-flash-lite": {0.075, 0.3},
	"gemini-2.5-flash":      {0.3, 2.5},
	"gemini-2.5-flash-lite": {0.1, 0.4},
	"gemini-2.5-pro":        {1.25, 10},
}

// PriceOf returns the price of a model ID. Vendor prefixes such as
// "google/" used by OpenRouter are ignored.
func PriceOf(model string) (Price, bool) {
	if i := strings.LastIndexByte(model, '/'); i >= 0 {
		model = model[i+1:]
	}
	if p, ok := prices[model]; ok {
		return p, true
	}
	best := ""
	for family := range prices {
		if len(family) > len(best) && strings.HasPrefix(model, family+"-") &&
			isSnapshot(model[len(family)+1:]) {
			best = family
		}
	}
	if best == "" {
		return Price{}, false
	}
	return prices[best], true
}

// isSnapshot reports whether suffix, the part after "<family>-", names a
// release of that family rather than a different model.
func isSnapshot(suffix string) bool {
	part, _, _ := strings.Cut(suffix, "-")
	switch part {
	case "latest", "exp", "preview":
		return true
	case "":
		return false
	}
	return part[0] >= '0' && part[0] <= '9'
}
