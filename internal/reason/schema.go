// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reason

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Validate checks a raw reasoning-service payload against a JSON Schema.
// Consumers reject any response that fails validation instead of guessing
// at partially usable structure.
func Validate(schema, payload string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewStringLoader(payload),
	)
	if err != nil {
		return fmt.Errorf("validating response: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("response failed schema validation: %s", strings.Join(msgs, "; "))
	}
	return nil
}
