// Package profiles provides embedded enrollment profile templates.
//
// These profiles define the issuance policy applied to verified SPKAC
// requests and are embedded in the binary for convenience. Users can
// copy and customize them, then pass the file path instead of the
// builtin name.
package profiles

import "embed"

// FS contains all embedded profile YAML files.
//
//go:embed *.yaml
var FS embed.FS
