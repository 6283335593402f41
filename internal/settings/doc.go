// Package settings defines per-site playback settings and the clamping rules
// that bound them against the current plan tier.
//
// Clamping is the only validation surface: malformed or out-of-range input is
// never rejected, it is coerced and bounded. Every read path must clamp
// against the plan tier in effect at read time rather than trusting values
// found in storage.
package settings
