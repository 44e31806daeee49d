package config

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// ApplyOverrides decodes a generic document, such as one assembled from
// command line flags, over the fields of r. Keys follow the configuration
// file layout.
func (r *Root) ApplyOverrides(values map[string]any) error {
	if err := decode(values, r); err != nil {
		return fmt.Errorf("failed to apply overrides: %w", err)
	}
	return nil
}

// we use this one so we don't need duplicate tags on every struct
func decode(input any, output any) error {
	config := &mapstructure.DecoderConfig{
		TagName:          "json",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           output,
	}

	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}
