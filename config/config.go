// Package config embeds the annotated luxflex.yaml template.
package config

import (
	_ "embed"
)

//go:embed luxflex.yaml
var template []byte

// Template returns the default luxflex.yaml.
func Template() []byte {
	return append([]byte(nil), template...)
}
