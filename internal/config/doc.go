// Package config loads the shelf client configuration.
//
// # Resolution
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/shelf/config.toml
//  3. If the file doesn't exist, fall back to defaults
//  4. Empty or whitespace-only fields keep their defaults
//  5. SHELF_API_URL and SHELF_LOG_LEVEL override the file
//
// The process loads a .env file from the working directory before calling
// Load, so the overrides can live there too.
//
// # TOML Format
//
//	api_url = "https://phl-2-b5-mission04-assignment04-ser.vercel.app"
//	request_timeout = "15s"
//	requests_per_second = 0      # 0 disables the limiter
//	keep_unused_for = "60s"      # cache retention for unwatched data
//	refresh_interval = "0s"      # 0 disables background refresh
//	prefs_path = "~/.config/shelf/prefs.toml"
//	log_file = "~/.local/state/shelf/shelf.log"
//	log_level = "info"           # debug, info, warn, error
//	log_format = "text"          # text or json
//
// Paths starting with ~ are expanded against the user's home directory.
package config
