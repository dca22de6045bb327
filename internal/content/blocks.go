package content

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultCurrency is the symbol used by [FormatPrice].
const DefaultCurrency = "₹"

const maxBenefitBullets = 5

var (
	nonNumeric        = regexp.MustCompile(`[^\d.]`)
	benefitSeparators = regexp.MustCompile(`[,;•\n]`)
	ingredientSplit   = regexp.MustCompile(`[,;]`)
	concentrationNote = regexp.MustCompile(`^(\d+%?)\s+(.+)$`)
	skinTypeSplit     = regexp.MustCompile(`[,;&/]`)
)

// Price is a parsed price.
type Price struct {
	Display  string
	Numeric  float64
	Currency string
	Original string
}

// FormatPrice parses the numeric part of raw ("₹699", "699 INR") and
// renders it with the default currency symbol. Unparsable input counts as 0.
func FormatPrice(raw string) Price {
	value := parseNumber(raw)
	display := DefaultCurrency + strconv.FormatFloat(value, 'f', -1, 64)
	return Price{
		Display:  display,
		Numeric:  value,
		Currency: DefaultCurrency,
		Original: raw,
	}
}

// PriceComparison is the outcome of [ComparePrices].
type PriceComparison struct {
	A, B       Price
	Difference float64
	Winner     string
}

// ComparePrices reports which price is lower.
func ComparePrices(a, b string) PriceComparison {
	pa, pb := FormatPrice(a), FormatPrice(b)
	diff := pa.Numeric - pb.Numeric
	winner := "Tie"
	switch {
	case diff < 0:
		winner = "A"
	case diff > 0:
		winner = "B"
	}
	if diff < 0 {
		diff = -diff
	}
	return PriceComparison{A: pa, B: pb, Difference: diff, Winner: winner}
}

// Ingredient is one parsed ingredient. Concentration is empty when the
// ingredient carried no leading amount.
type Ingredient struct {
	Name          string
	Concentration string
	Display       string
}

// FormatIngredients splits a comma- or semicolon-separated list and pulls a
// leading amount ("10% Vitamin C") into Concentration.
func FormatIngredients(raw string) []Ingredient {
	var out []Ingredient
	for _, item := range ingredientSplit.Split(raw, -1) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		ing := Ingredient{Name: item, Display: item}
		if m := concentrationNote.FindStringSubmatch(item); m != nil {
			ing.Concentration = m[1]
			ing.Name = strings.TrimSpace(m[2])
		}
		out = append(out, ing)
	}
	return out
}

// IngredientNames returns the names of the parsed ingredients.
func IngredientNames(raw string) []string {
	ings := FormatIngredients(raw)
	names := make([]string, len(ings))
	for i, ing := range ings {
		names[i] = ing.Name
	}
	return names
}

// IngredientOverlap is the outcome of [CompareIngredients]. Names are
// lower-cased and sorted.
type IngredientOverlap struct {
	Common     []string
	OnlyA      []string
	OnlyB      []string
	Similarity float64
}

// CompareIngredients reports the ingredients two lists share.
func CompareIngredients(a, b string) IngredientOverlap {
	return overlap(lowerSet(IngredientNames(a)), lowerSet(IngredientNames(b)))
}

// ParseSkinTypes splits "Oily, Combination & Dry" into title-cased types.
func ParseSkinTypes(raw string) []string {
	var out []string
	for _, t := range skinTypeSplit.Split(raw, -1) {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		words := strings.Fields(strings.ToLower(t))
		for i, w := range words {
			r, size := utf8.DecodeRuneInString(w)
			words[i] = string(unicode.ToUpper(r)) + w[size:]
		}
		out = append(out, strings.Join(words, " "))
	}
	return out
}

// CompareSkinTypes reports the skin types two products share.
func CompareSkinTypes(a, b string) IngredientOverlap {
	return overlap(lowerSet(ParseSkinTypes(a)), lowerSet(ParseSkinTypes(b)))
}

func lowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = true
	}
	return set
}

func overlap(a, b map[string]bool) IngredientOverlap {
	var out IngredientOverlap
	union := len(b)
	for name := range a {
		if b[name] {
			out.Common = append(out.Common, name)
		} else {
			out.OnlyA = append(out.OnlyA, name)
			union++
		}
	}
	for name := range b {
		if !a[name] {
			out.OnlyB = append(out.OnlyB, name)
		}
	}
	sort.Strings(out.Common)
	sort.Strings(out.OnlyA)
	sort.Strings(out.OnlyB)
	if union > 0 {
		out.Similarity = float64(len(out.Common)) / float64(union)
	}
	return out
}

// Bullet is one formatted benefit. Short benefits are highlighted.
type Bullet struct {
	Text      string
	Highlight bool
}

// BenefitBullets turns a delimited benefits string into at most max
// sentences, capitalized and ending in punctuation. The limit applies to the
// raw split, so empty items still count against it.
func BenefitBullets(raw string, max int) []Bullet {
	if max <= 0 {
		max = maxBenefitBullets
	}
	if raw == "" {
		return nil
	}
	parts := benefitSeparators.Split(raw, -1)
	if len(parts) > max {
		parts = parts[:max]
	}

	var out []Bullet
	for _, item := range parts {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(item)
		text := string(unicode.ToUpper(r)) + item[size:]
		if !strings.HasSuffix(text, ".") && !strings.HasSuffix(text, "!") && !strings.HasSuffix(text, "?") {
			text += "."
		}
		out = append(out, Bullet{Text: text, Highlight: utf8.RuneCountInString(item) < 30})
	}
	return out
}

// BulletTexts returns the text of each bullet.
func BulletTexts(bullets []Bullet) []string {
	out := make([]string, len(bullets))
	for i, b := range bullets {
		out[i] = b.Text
	}
	return out
}

// Benefit categories.
const (
	BenefitAppearance = "appearance"
	BenefitTreatment  = "treatment"
	BenefitProtection = "protection"
	BenefitOther      = "other"
)

var benefitKeywords = []struct {
	category string
	keywords []string
}{
	{BenefitAppearance, []string{"bright", "glow", "radiant", "smooth", "soft", "even tone"}},
	{BenefitTreatment, []string{"fade", "reduce", "fight", "anti", "heal", "repair", "dark spot"}},
	{BenefitProtection, []string{"protect", "shield", "barrier", "hydrat", "moisture"}},
}

// CategorizeBenefits sorts up to ten benefit bullets into the appearance,
// treatment, protection and other categories by keyword. Only non-empty
// categories are returned.
func CategorizeBenefits(raw string) map[string][]string {
	out := make(map[string][]string)
	for _, bullet := range BulletTexts(BenefitBullets(raw, 10)) {
		lower := strings.ToLower(bullet)
		category := BenefitOther
	match:
		for _, group := range benefitKeywords {
			for _, kw := range group.keywords {
				if strings.Contains(lower, kw) {
					category = group.category
					break match
				}
			}
		}
		out[category] = append(out[category], bullet)
	}
	return out
}

// Winner rules for [NewComparisonRow].
const (
	LowerBetter  = "lower_better"
	HigherBetter = "higher_better"
)

// NewComparisonRow builds a table row. rule is [LowerBetter],
// [HigherBetter], or an explicit winner "A", "B" or "Tie"; anything else is
// a tie.
func NewComparisonRow(feature, a, b, rule string) ComparisonRow {
	winner := "Tie"
	switch rule {
	case "A", "B", "Tie":
		winner = rule
	case LowerBetter, HigherBetter:
		na, nb := parseNumber(a), parseNumber(b)
		if rule == HigherBetter {
			na, nb = nb, na
		}
		switch {
		case na < nb:
			winner = "A"
		case nb < na:
			winner = "B"
		}
	}
	return ComparisonRow{Feature: feature, ProductAValue: a, ProductBValue: b, Winner: winner}
}

// BuildComparisonTable compares price (lower wins), concentration (higher
// wins), key ingredients and suitable skin types.
func BuildComparisonTable(a, b Product) []ComparisonRow {
	return []ComparisonRow{
		NewComparisonRow("Price", orNA(a.Price), orNA(b.Price), LowerBetter),
		NewComparisonRow("Concentration", orNA(a.Concentration), orNA(b.Concentration), HigherBetter),
		NewComparisonRow("Key Ingredients", orNA(a.KeyIngredients), orNA(b.KeyIngredients), "Tie"),
		NewComparisonRow("Suitable For", orNA(a.SkinType), orNA(b.SkinType), "Tie"),
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// parseNumber keeps digits and dots and parses the rest, returning 0 when
// nothing numeric remains.
func parseNumber(s string) float64 {
	digits := nonNumeric.ReplaceAllString(s, "")
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0
	}
	return v
}

// benefitCategoryNames lists the non-empty categories in fixed order.
func benefitCategoryNames(categories map[string][]string) []string {
	var names []string
	for _, c := range []string{BenefitAppearance, BenefitTreatment, BenefitProtection, BenefitOther} {
		if len(categories[c]) > 0 {
			names = append(names, c)
		}
	}
	return names
}
