package appidentityassets

import _ "embed"

// YAML is the embedded copy of .fulmen/app.yaml used when no identity file
// is found on disk.
//
//go:embed app.yaml
var YAML []byte
