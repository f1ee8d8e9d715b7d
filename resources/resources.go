// Package resources embeds the default asset files shipped with the binary.
package resources

import "embed"

//go:embed events/*.yaml
var EventFiles embed.FS
