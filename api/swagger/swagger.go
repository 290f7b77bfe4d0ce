// Package swagger embeds the OpenAPI document of the HTTP API.
package swagger

import _ "embed"

// Spec is the OpenAPI 2.0 document served at /openapi.json.
//
//go:embed openapi.json
var Spec []byte
