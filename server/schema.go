package server

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// GenerateSchema derives a JSON Schema for a tool's argument struct from its
// json and jsonschema_description tags. The schema is inlined (no $ref) and
// closed to unknown properties, matching the decoder's ErrorUnused setting.
func GenerateSchema[T any]() []byte {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(&v)
	// Tool schemas describe a bare arguments object.
	schema.Version = ""
	data, err := json.Marshal(schema)
	if err != nil {
		// Reflection over a plain struct cannot produce unmarshalable output;
		// failing loudly at startup beats serving a broken tool list.
		panic(fmt.Sprintf("failed to marshal schema for %T: %v", v, err))
	}
	return data
}
