package content

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
)

// Prompt kinds. Every prompt starts with a "TASK: <kind>" line so offline
// backends can route it.
const (
	TaskQuestions   = "questions"
	TaskCompetitor  = "competitor"
	TaskFAQ         = "faq"
	TaskProductPage = "product_page"
	TaskComparison  = "comparison"
)

const (
	taskPrefix    = "TASK: "
	productMarker = "PRODUCT:"
)

// TaskOf returns the kind named on a prompt's TASK line, or "".
func TaskOf(prompt string) string {
	scanner := bufio.NewScanner(strings.NewReader(prompt))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, taskPrefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, taskPrefix))
		}
	}
	return ""
}

func productJSON(p Product) string {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

func questionsPrompt(p Product) string {
	return fmt.Sprintf(`TASK: %s
Generate user questions for this product. Return JSON with 5 categories, 3 questions each.

PRODUCT:
%s

FORMAT:
{"Informational": [{"question": "...", "answer": "..."}], "Safety": [...], "Usage": [...], "Purchase": [...], "Comparison": [...]}
`, TaskQuestions, productJSON(p))
}

func competitorPrompt(p Product) string {
	return fmt.Sprintf(`TASK: %s
Create a fictional competitor Vitamin C serum product.

EXISTING PRODUCT (for reference):
- Name: %s
- Price: %s
- Concentration: %s

Create a DIFFERENT competing product. Return ONLY a JSON object with these EXACT keys:

{"Product Name": "Your Product Name Here", "Concentration": "15%% Vitamin C", "Skin Type": "All Skin Types", "Key Ingredients": "Vitamin C, Niacinamide", "Benefits": "Brightening, Anti-aging", "How to Use": "Apply 3 drops daily", "Side Effects": "Mild tingling possible", "Price": "₹849"}

IMPORTANT: Return ONLY the JSON object, no explanation, no markdown, no nesting.
`, TaskCompetitor, p.Name, p.Price, p.Concentration)
}

func faqPrompt(p Product) string {
	return fmt.Sprintf(`TASK: %s
Generate a comprehensive FAQ Page for this product with at least 15 questions across 5 categories.

PRODUCT:
%s

ADDITIONAL CONTEXT:
- Main ingredients: %s
- Benefit categories: [%s]

REQUIREMENTS:
1. Generate 15 questions total (3 from each category: %s)
2. Base answers ONLY on the provided product data.
3. Return ONLY valid JSON, no markdown.

OUTPUT FORMAT:
{"product_name": %q, "faqs": [{"question": "...", "answer": "...", "category": "%s"}, ...]}
`, TaskFAQ, productJSON(p),
		strings.Join(IngredientNames(p.KeyIngredients), ", "),
		strings.Join(benefitCategoryNames(CategorizeBenefits(p.Benefits)), ", "),
		strings.Join(Categories, ", "),
		p.Name, strings.Join(Categories, "|"))
}

func productPagePrompt(p Product) string {
	price := FormatPrice(p.Price)
	bullets, _ := json.Marshal(BulletTexts(BenefitBullets(p.Benefits, 0)))
	return fmt.Sprintf(`TASK: %s
Generate a marketing Product Page for this product. Return ONLY valid JSON.

PRODUCT:
%s

FORMATTING HINTS:
- Price display: %s
- Key benefits: %s

FORMAT: {"title": %q, "price": %q, "tagline": "...", "description": "...", "key_benefits": ["...", "..."], "specifications": [{"name": "...", "value": "..."}], "usage_guide": "...", "safety_info": "..."}
`, TaskProductPage, productJSON(p), price.Display, bullets, p.Name, price.Display)
}

func comparisonPrompt(a, b Product, table []ComparisonRow) string {
	rows, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		rows = []byte("[]")
	}
	return fmt.Sprintf(`TASK: %s
Generate a summary and verdict for this product comparison. Return ONLY valid JSON.

PRODUCT A: %s (%s)
PRODUCT B: %s (%s)

COMPARISON DATA (already computed):
%s

FORMAT: {"summary": "2-3 sentence overview...", "verdict": "Our recommendation and why..."}
`, TaskComparison, a.Name, a.Price, b.Name, b.Price, rows)
}
