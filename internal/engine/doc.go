// Package engine implements per-element audio routing. Each media element
// that needs enhancement gets a pipeline with a dry path and a wet path
// (pre-gain, optional compressor, boost gain, analyzer tap); routing and
// parameter changes are linear gain ramps so live audio never clicks. The
// shared graph context is created lazily, and elements whose audio cannot
// be captured are blocked permanently while their playback continues
// untouched.
package engine
