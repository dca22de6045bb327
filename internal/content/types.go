// Package content implements the product-marketing workflow: it extracts a
// product from raw input, asks the backend for questions, a competitor and
// three pages, and validates the result.
//
// Key types:
//   - [Product] is the normalized product record
//   - [FAQPage], [ProductPage] and [ComparisonPage] are the generated pages
//   - [NewWorkflow] assembles the steps into a pipeline.Workflow
//   - [MockBackend] answers every prompt offline with canned completions
package content

import (
	"fmt"
	"sort"
	"strings"

	"contentpipe/internal/backend"
	"contentpipe/internal/schema"
	"contentpipe/internal/step"
)

// Product is a product record. Raw input may use either the display names
// ("Product Name", "Skin Type", ...) or snake_case keys.
type Product struct {
	Name           string `json:"product_name" mapstructure:"product_name"`
	Concentration  string `json:"concentration,omitempty" mapstructure:"concentration"`
	SkinType       string `json:"skin_type" mapstructure:"skin_type"`
	KeyIngredients string `json:"key_ingredients" mapstructure:"key_ingredients"`
	Benefits       string `json:"benefits" mapstructure:"benefits"`
	HowToUse       string `json:"how_to_use" mapstructure:"how_to_use"`
	SideEffects    string `json:"side_effects,omitempty" mapstructure:"side_effects"`
	Price          string `json:"price" mapstructure:"price"`
}

// keyAliases maps lower-cased input keys to Product field keys.
var keyAliases = map[string]string{
	"product name":    "product_name",
	"product_name":    "product_name",
	"name":            "product_name",
	"concentration":   "concentration",
	"skin type":       "skin_type",
	"skin_type":       "skin_type",
	"key ingredients": "key_ingredients",
	"key_ingredients": "key_ingredients",
	"ingredients":     "key_ingredients",
	"benefits":        "benefits",
	"how to use":      "how_to_use",
	"how_to_use":      "how_to_use",
	"usage":           "how_to_use",
	"side effects":    "side_effects",
	"side_effects":    "side_effects",
	"price":           "price",
}

// productEnvelopes are wrapper keys some completions nest the product under.
var productEnvelopes = []string{"Product B", "product_b", "product"}

// ParseProduct normalizes the keys of raw, decodes it into a Product and
// checks it against the product schema. Every failure wraps
// [step.ErrInvalidInput].
func ParseProduct(raw map[string]any, validator *schema.Validator) (Product, error) {
	normalized := make(map[string]any, len(raw))
	for k, v := range raw {
		key := strings.ToLower(strings.TrimSpace(k))
		if alias, ok := keyAliases[key]; ok {
			key = alias
		}
		if v == nil {
			continue
		}
		normalized[key] = v
	}

	var p Product
	if err := backend.Decode(normalized, &p); err != nil {
		return Product{}, step.Invalid("product data: %v", err)
	}
	p.trim()
	if validator != nil {
		if err := validator.Validate(schema.Product, p); err != nil {
			return Product{}, step.Invalid("product data: %v", err)
		}
	}
	return p, nil
}

// unwrapProduct returns the nested product mapping when raw is an envelope.
func unwrapProduct(raw map[string]any) map[string]any {
	for _, key := range productEnvelopes {
		if inner, ok := raw[key].(map[string]any); ok {
			return inner
		}
	}
	return raw
}

func (p *Product) trim() {
	for _, f := range []*string{&p.Name, &p.Concentration, &p.SkinType, &p.KeyIngredients, &p.Benefits, &p.HowToUse, &p.SideEffects, &p.Price} {
		*f = strings.TrimSpace(*f)
	}
}

// QA is one question and its answer.
type QA struct {
	Question string `json:"question" mapstructure:"question"`
	Answer   string `json:"answer" mapstructure:"answer"`
}

// Question categories, in presentation order.
var Categories = []string{"Informational", "Safety", "Usage", "Purchase", "Comparison"}

// Questions groups generated questions by category.
type Questions map[string][]QA

// Total returns the number of questions across all categories.
func (q Questions) Total() int {
	n := 0
	for _, list := range q {
		n += len(list)
	}
	return n
}

// OrderedCategories returns the categories present in q: the known ones in
// presentation order, then any others alphabetically.
func (q Questions) OrderedCategories() []string {
	seen := make(map[string]bool, len(q))
	var out []string
	for _, c := range Categories {
		if _, ok := q[c]; ok {
			out = append(out, c)
			seen[c] = true
		}
	}
	var extra []string
	for c := range q {
		if !seen[c] {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// FAQItem is one entry of the FAQ page.
type FAQItem struct {
	Question string `json:"question" mapstructure:"question"`
	Answer   string `json:"answer" mapstructure:"answer"`
	Category string `json:"category,omitempty" mapstructure:"category"`
}

// FAQPage is the generated FAQ page.
type FAQPage struct {
	ProductName string    `json:"product_name" mapstructure:"product_name"`
	FAQs        []FAQItem `json:"faqs" mapstructure:"faqs"`
}

// Spec is a name/value specification line.
type Spec struct {
	Name  string `json:"name" mapstructure:"name"`
	Value string `json:"value" mapstructure:"value"`
}

// ProductPage is the generated product page.
type ProductPage struct {
	Title          string   `json:"title" mapstructure:"title"`
	Price          string   `json:"price" mapstructure:"price"`
	Tagline        string   `json:"tagline" mapstructure:"tagline"`
	Description    string   `json:"description" mapstructure:"description"`
	KeyBenefits    []string `json:"key_benefits" mapstructure:"key_benefits"`
	Specifications []Spec   `json:"specifications" mapstructure:"specifications"`
	UsageGuide     string   `json:"usage_guide" mapstructure:"usage_guide"`
	SafetyInfo     string   `json:"safety_info,omitempty" mapstructure:"safety_info"`
}

// ComparisonRow is one feature row of the comparison table. Winner is "A",
// "B" or "Tie".
type ComparisonRow struct {
	Feature       string `json:"feature"`
	ProductAValue string `json:"product_a_value"`
	ProductBValue string `json:"product_b_value"`
	Winner        string `json:"winner"`
}

// ComparisonPage is the generated comparison page.
type ComparisonPage struct {
	ProductAName    string          `json:"product_a_name"`
	ProductBName    string          `json:"product_b_name"`
	Summary         string          `json:"summary"`
	ComparisonTable []ComparisonRow `json:"comparison_table"`
	Verdict         string          `json:"verdict"`
}

// Pages are the three documents a run publishes.
type Pages struct {
	FAQ         FAQPage
	ProductPage ProductPage
	Comparison  ComparisonPage
}

// PagesFrom collects the pages from a run's step results.
func PagesFrom(results map[string]any) (Pages, error) {
	var pages Pages
	var ok bool
	if pages.FAQ, ok = results[StepFAQ].(FAQPage); !ok {
		return Pages{}, fmt.Errorf("no FAQ page in results")
	}
	if pages.ProductPage, ok = results[StepProductPage].(ProductPage); !ok {
		return Pages{}, fmt.Errorf("no product page in results")
	}
	if pages.Comparison, ok = results[StepComparison].(ComparisonPage); !ok {
		return Pages{}, fmt.Errorf("no comparison page in results")
	}
	return pages, nil
}
