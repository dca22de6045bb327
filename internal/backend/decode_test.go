package backend

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	type spec struct {
		Name  string `mapstructure:"name"`
		Value string `mapstructure:"value"`
	}
	type page struct {
		Title string  `mapstructure:"title"`
		Price float64 `mapstructure:"price"`
		Specs []spec  `mapstructure:"specifications"`
	}

	t.Run("weakly typed fields", func(t *testing.T) {
		var got page
		err := Decode(map[string]any{
			"title":          "Serum",
			"price":          "699",
			"specifications": []any{map[string]any{"name": "Volume", "value": 30}},
			"ignored":        true,
		}, &got)

		require.NoError(t, err)
		assert.Equal(t, page{Title: "Serum", Price: 699, Specs: []spec{{Name: "Volume", Value: "30"}}}, got)
	})

	t.Run("json numbers", func(t *testing.T) {
		var got page
		err := Decode(map[string]any{
			"title":          "Serum",
			"price":          json.Number("699.5"),
			"specifications": []any{map[string]any{"name": "Volume", "value": json.Number("30")}},
		}, &got)

		require.NoError(t, err)
		assert.Equal(t, page{Title: "Serum", Price: 699.5, Specs: []spec{{Name: "Volume", Value: "30"}}}, got)
	})

	t.Run("incompatible field", func(t *testing.T) {
		var got page
		err := Decode(map[string]any{"specifications": "not a list"}, &got)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode payload")
	})

	t.Run("non-pointer target", func(t *testing.T) {
		err := Decode(map[string]any{}, page{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "create decoder")
	})
}
