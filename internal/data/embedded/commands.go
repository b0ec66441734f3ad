// Package embedded provides access to embedded catalog data files.
package embedded

import _ "embed"

// CommandCatalogData contains the embedded command catalog YAML data.
//
//go:embed commands.yaml
var CommandCatalogData []byte
