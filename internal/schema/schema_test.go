package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Product(t *testing.T) {
	v := MustNew()

	valid := map[string]any{
		"product_name":    "GlowBoost Vitamin C Serum",
		"concentration":   "10% Vitamin C",
		"skin_type":       "Oily, Combination",
		"key_ingredients": "Vitamin C, Hyaluronic Acid",
		"benefits":        "Brightening, Fades dark spots",
		"how_to_use":      "Apply 2-3 drops in morning",
		"price":           "₹699",
	}
	require.NoError(t, v.Validate(Product, valid))

	tests := []struct {
		name   string
		mutate func(m map[string]any)
		want   string
	}{
		{name: "missing price", mutate: func(m map[string]any) { delete(m, "price") }, want: "price"},
		{name: "empty name", mutate: func(m map[string]any) { m["product_name"] = "" }, want: "/product_name"},
		{name: "wrong type", mutate: func(m map[string]any) { m["benefits"] = 3 }, want: "/benefits"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := make(map[string]any, len(valid))
			for k, val := range valid {
				doc[k] = val
			}
			tt.mutate(doc)

			err := v.Validate(Product, doc)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidator_StructDocuments(t *testing.T) {
	type row struct {
		Feature string `json:"feature"`
		A       string `json:"product_a_value"`
		B       string `json:"product_b_value"`
		Winner  string `json:"winner"`
	}
	type page struct {
		AName   string `json:"product_a_name"`
		BName   string `json:"product_b_name"`
		Summary string `json:"summary"`
		Table   []row  `json:"comparison_table"`
		Verdict string `json:"verdict"`
	}
	v := MustNew()

	good := page{AName: "A", BName: "B", Table: []row{{Feature: "Price", A: "1", B: "2", Winner: "A"}}}
	assert.NoError(t, v.Validate(ComparisonPage, good))

	badWinner := good
	badWinner.Table = []row{{Feature: "Price", Winner: "C"}}
	assert.Error(t, v.Validate(ComparisonPage, badWinner))

	nilTable := good
	nilTable.Table = nil
	err := v.Validate(ComparisonPage, nilTable)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "comparison_table")
}

func TestValidator_PagesAndUnknown(t *testing.T) {
	v := MustNew()

	assert.NoError(t, v.Validate(FAQ, map[string]any{
		"product_name": "P",
		"faqs":         []any{map[string]any{"question": "Q?", "answer": "A."}},
	}))
	assert.Error(t, v.Validate(FAQ, map[string]any{"product_name": "P"}))

	assert.NoError(t, v.Validate(ProductPage, map[string]any{
		"title": "T", "price": "₹1", "tagline": "", "description": "",
		"key_benefits": []any{}, "specifications": []any{}, "usage_guide": "",
	}))

	err := v.Validate("nope.json", map[string]any{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalid))

	err = v.Validate(FAQ, func() {})
	assert.True(t, errors.Is(err, ErrInvalid))
}
