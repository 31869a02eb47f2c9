// Package config defines the settings model of the application and the
// loader interface the application reads documents through.
//
// Settings come from an optional YAML file; command-line flags override
// individual fields. Concrete document loaders, such as the HCL one, live
// in separate packages.
package config
