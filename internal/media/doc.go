// Package media discovers playable elements and tracks their lifecycle.
// A Watcher polls a Provider and emits attach/detach hooks; the built-in
// DirectoryProvider serves WAV files from a configured directory, and a
// udev DeviceMonitor shortens discovery latency when sound hardware is
// hotplugged.
package media
