// Package config provides configuration management for the image
// downloader.
//
// This package handles:
//   - The Settings record consumed by the core packages
//   - Loading and saving settings from JSON files
//   - Default values matching the portal's historical client
//   - One-time boundary validation and normalization
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// .jpg only, output to ./downloaded_images, sequential downloads,
//	// 3 attempts with a 2s cooldown, 10s request timeout
//
// # Loading from File
//
//	settings, err := config.Load("~/.config/imagedl.json")
//	// Missing file falls back to defaults
//
// # Validation
//
// Validate is called exactly once, after flags are applied and before
// the settings enter the core. It normalizes extensions (lowercase,
// leading dot), clamps worker and retry counts, and rejects unusable
// base URLs. Core packages assume a validated Settings.
package config
