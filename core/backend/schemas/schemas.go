// Package schemas embeds the JSON schemas for request validation.
package schemas

import "embed"

// FS holds the request body schemas
//
//go:embed *.json
var FS embed.FS
