// Package app contains the core workflow driver logic. It defines the App
// struct, its resolved configuration, and the preparation-to-production run
// lifecycle, decoupled from any specific entrypoint like a CLI.
package app
