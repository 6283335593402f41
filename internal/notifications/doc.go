// Package notifications delivers daemon events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Per-category toggles let users mute trial, license, or error
// messages independently without duplicating HTTP glue at call sites.
//
// Extend this package if you need alternative transports; daemon code
// depends only on the simple Service interface.
package notifications
