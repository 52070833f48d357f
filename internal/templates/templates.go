// Package templates holds the README fragments compiled into the binary.
//
// Fragments live under readme/ so that their paths match the references
// produced by readme.Ref. The CLI overlays a configured template source on top
// of Readme, so a template root that ships its own readme/ wins.
package templates

import "embed"

// Readme holds readme/<key>.md for every fragment key.
//
//go:embed readme
var Readme embed.FS
