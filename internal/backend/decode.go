package backend

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Decode copies an extracted payload into out, which must be a pointer to a
// struct with mapstructure tags. Decoding is weakly typed, so a number the
// backend quoted as a string still lands in a numeric field.
func Decode(payload map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
