package content

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"contentpipe/internal/backend"
)

// MockBackend answers content prompts offline. Each prompt kind gets a
// canned completion in a different wrapping (fenced, enveloped, prose) so a
// mock run exercises the same extraction paths as a live one.
//
// Fail makes the named prompt kinds return an error instead.
type MockBackend struct {
	Fail    map[string]error
	Prompts []string
}

// NewMockBackend creates a MockBackend that answers every prompt kind.
func NewMockBackend() *MockBackend {
	return &MockBackend{Fail: map[string]error{}}
}

// Invoke implements backend.Backend.
func (m *MockBackend) Invoke(_ context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)

	task := TaskOf(prompt)
	if err := m.Fail[task]; err != nil {
		return "", err
	}

	switch task {
	case TaskQuestions:
		return fence("Here are the questions, grouped by category:", mustJSON(mockQuestions(productIn(prompt)))), nil
	case TaskCompetitor:
		return mustJSON(map[string]any{"Product B": mockCompetitor()}), nil
	case TaskFAQ:
		p := productIn(prompt)
		return mustJSON(FAQPage{ProductName: p.Name, FAQs: mockFAQ(p)}), nil
	case TaskProductPage:
		return "```\n" + mustJSON(mockProductPage(productIn(prompt))) + "\n```", nil
	case TaskComparison:
		a, b := comparedNames(prompt)
		return fmt.Sprintf("Sure! %s Hope this helps.", mustJSON(map[string]string{
			"summary": fmt.Sprintf("Comparing %s with %s.", a, b),
			"verdict": fmt.Sprintf("Both are excellent. %s offers better value.", a),
		})), nil
	default:
		return "", fmt.Errorf("mock backend: unknown prompt kind %q", task)
	}
}

// Calls returns the number of prompts received.
func (m *MockBackend) Calls() int {
	return len(m.Prompts)
}

// productIn recovers the product embedded after the PRODUCT: marker.
func productIn(prompt string) Product {
	_, rest, found := strings.Cut(prompt, productMarker)
	if found {
		if payload, err := backend.Extract(rest); err == nil {
			if p, err := ParseProduct(payload, nil); err == nil {
				return p
			}
		}
	}
	return Product{Name: "the product"}
}

// comparedNames reads the "PRODUCT A: name (price)" lines.
func comparedNames(prompt string) (string, string) {
	name := func(prefix string) string {
		for _, line := range strings.Split(prompt, "\n") {
			line = strings.TrimSpace(line)
			if rest, ok := strings.CutPrefix(line, prefix); ok {
				if i := strings.LastIndex(rest, " ("); i >= 0 {
					rest = rest[:i]
				}
				return strings.TrimSpace(rest)
			}
		}
		return ""
	}
	return name("PRODUCT A:"), name("PRODUCT B:")
}

func fence(intro, body string) string {
	return intro + "\n\n```json\n" + body + "\n```\n\nLet me know if you need more."
}

func mustJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		panic(err)
	}
	return string(data)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func mockQuestions(p Product) map[string][]QA {
	return map[string][]QA{
		"Informational": {
			{Question: fmt.Sprintf("What is %s?", p.Name), Answer: fmt.Sprintf("A skincare serum with %s.", orDefault(p.Concentration, "a balanced formula"))},
			{Question: "What are the key ingredients?", Answer: fmt.Sprintf("Contains %s.", p.KeyIngredients)},
			{Question: "What are the main benefits?", Answer: fmt.Sprintf("Benefits include %s.", p.Benefits)},
		},
		"Safety": {
			{Question: "Are there any side effects?", Answer: orDefault(p.SideEffects, "Minimal side effects.")},
			{Question: "Is it safe for sensitive skin?", Answer: "Perform a patch test before first use."},
			{Question: "Can I use it if I have allergies?", Answer: "Check ingredients list and consult a dermatologist."},
		},
		"Usage": {
			{Question: "How do I apply it?", Answer: orDefault(p.HowToUse, "Follow the directions on the pack.")},
			{Question: "When should I use it in my routine?", Answer: "Apply after cleansing, before moisturizer."},
			{Question: "How often should I use it?", Answer: "Once daily in the morning for best results."},
		},
		"Purchase": {
			{Question: "What is the price?", Answer: fmt.Sprintf("Priced at %s.", p.Price)},
			{Question: "Where can I buy it?", Answer: "Available online and at select retailers."},
			{Question: "Is it good value for money?", Answer: fmt.Sprintf("Excellent value at %s.", p.Price)},
		},
		"Comparison": {
			{Question: "How does it compare to other serums?", Answer: fmt.Sprintf("With %s, it offers an optimal concentration.", orDefault(p.Concentration, "its formula"))},
			{Question: "Is it better than drugstore options?", Answer: "Premium formulation provides superior results."},
			{Question: "Can I layer it with other products?", Answer: "Yes, layer with water-based serums."},
		},
	}
}

func mockFAQ(p Product) []FAQItem {
	var out []FAQItem
	questions := mockQuestions(p)
	for _, category := range Categories {
		for _, qa := range questions[category] {
			out = append(out, FAQItem{Question: qa.Question, Answer: qa.Answer, Category: category})
		}
	}
	return out
}

// mockCompetitor uses lower-case keys, as some models do.
func mockCompetitor() map[string]string {
	c := DefaultCompetitor()
	return map[string]string{
		"product name":    c.Name,
		"concentration":   c.Concentration,
		"skin type":       c.SkinType,
		"key ingredients": c.KeyIngredients,
		"benefits":        c.Benefits,
		"how to use":      c.HowToUse,
		"side effects":    c.SideEffects,
		"price":           c.Price,
	}
}

func mockProductPage(p Product) ProductPage {
	return ProductPage{
		Title:       p.Name,
		Price:       FormatPrice(p.Price).Display,
		Tagline:     fmt.Sprintf("Unlock Your Natural Glow with %s", orDefault(p.Concentration, p.Name)),
		Description: fmt.Sprintf("%s - premium skincare for %s skin with %s.", p.Name, p.SkinType, p.KeyIngredients),
		KeyBenefits: BulletTexts(BenefitBullets(p.Benefits, 0)),
		Specifications: []Spec{
			{Name: "Concentration", Value: orDefault(p.Concentration, "N/A")},
			{Name: "Skin Type", Value: p.SkinType},
			{Name: "Key Ingredients", Value: p.KeyIngredients},
		},
		UsageGuide: p.HowToUse,
		SafetyInfo: p.SideEffects,
	}
}
