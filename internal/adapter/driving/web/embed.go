package web

import "embed"

// StaticFS holds the embedded dashboard assets.
//
//go:embed static/*
var StaticFS embed.FS
