package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFromFile_CSV(t *testing.T) {
	c, err := ReadFromFile(filepath.Join("testdata", "products.csv"))

	require.NoError(t, err)
	require.Len(t, c.Entries, 2)

	first := c.Entries[0]
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "GlowBoost Vitamin C Serum", first.Name())
	assert.Equal(t, "Oily, Combination", first.Fields["Skin Type"])
	assert.Equal(t, "₹699", first.Fields["Price"])

	second := c.Entries[1]
	assert.Equal(t, "HydraCalm Night Cream", second.Name())
	assert.NotContains(t, second.Fields, "Side Effects", "empty cells are omitted")

	assert.Equal(t, []string{"GlowBoost Vitamin C Serum", "HydraCalm Night Cream"}, c.Names())
}

func TestReadFromFile_Minimal(t *testing.T) {
	c, err := ReadFromFile(filepath.Join("testdata", "minimal.csv"))

	require.NoError(t, err)
	require.Len(t, c.Entries, 1)
	assert.Equal(t, "Only Name", c.Entries[0].Name())
	assert.Equal(t, map[string]any{"product_name": "Only Name", "price": "₹100"}, c.Entries[0].Fields)
}

func TestReadFromFile_YAML(t *testing.T) {
	c, err := ReadFromFile(filepath.Join("testdata", "products.yaml"))

	require.NoError(t, err)
	require.Len(t, c.Entries, 2)
	assert.Equal(t, 1, c.Entries[0].Line)
	assert.Equal(t, "GlowBoost Vitamin C Serum", c.Entries[0].Name())
	assert.Equal(t, "10% Vitamin C", c.Entries[0].Fields["Concentration"])
	assert.Equal(t, "HydraCalm Night Cream", c.Entries[1].Name())
}

func TestReadFromFile_Errors(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"nonexistent.csv", "failed to open catalog"},
		{"nonexistent.yaml", "failed to open catalog"},
		{"missing_name.csv", "catalog missing required column"},
		{"empty_name.csv", "catalog line 3: product name is required"},
		{"empty.yaml", "catalog contains no products"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			c, err := ReadFromFile(filepath.Join("testdata", tt.file))

			require.Error(t, err)
			assert.Nil(t, c)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadFromString(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
		wantLen int
	}{
		{name: "header only", data: "Product Name,Price\n", wantErr: "no products"},
		{name: "empty", data: "", wantErr: "failed to read catalog header"},
		{name: "ragged row", data: "name,price\nA,1,extra\n", wantErr: "line 2"},
		{name: "name column spelled name", data: "Name\nA\nB\n", wantLen: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ReadFromString(tt.data)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, c.Entries, tt.wantLen)
		})
	}
}

func TestReadYAML_Errors(t *testing.T) {
	_, err := ReadYAML([]byte("products: ["))
	assert.ErrorContains(t, err, "failed to parse catalog")

	_, err = ReadYAML([]byte("products:\n  - Price: ₹1\n"))
	assert.ErrorContains(t, err, "product at index 0 has no name")
}

func TestEntry_Slug(t *testing.T) {
	tests := []struct {
		fields map[string]any
		want   string
	}{
		{map[string]any{"Product Name": "GlowBoost Vitamin C Serum"}, "glowboost-vitamin-c-serum"},
		{map[string]any{"name": "  10% Niacinamide + Zinc!  "}, "10-niacinamide-zinc"},
		{map[string]any{"name": "★★★"}, "product-7"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Entry{Line: 7, Fields: tt.fields}.Slug())
		})
	}
}
