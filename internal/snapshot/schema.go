package snapshot

import (
	"github.com/invopop/jsonschema"
)

// Schema describes the wire form of a Frame. Unknown entity keys are allowed
// because they are carried as extensions.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  true,
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(new(Frame))
	schema.Title = "spritesync frame"
	schema.Description = "Authoritative entity snapshots broadcast once per server tick."
	return schema
}
