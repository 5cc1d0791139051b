// Package assets embeds the files the binaries need at runtime.
package assets

import "embed"

//go:embed all:templates common-passwords.txt
var FS embed.FS

const (
	EmailTemplatesDir   = "templates/email"
	CommonPasswordsFile = "common-passwords.txt"
)
