// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the run lifecycle: load a document, apply
// the requested updates and report the resulting state. It is decoupled from
// any specific entrypoint like a CLI.
package app
