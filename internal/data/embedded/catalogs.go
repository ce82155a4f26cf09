// Package embedded provides access to data files compiled into the ccode binary.
package embedded

import _ "embed"

// ProviderKindsData contains the embedded provider kind catalog YAML data.
//
//go:embed provider_kinds.yaml
var ProviderKindsData []byte
