package media

import "amp/internal/engine"

// Provider enumerates the media elements currently visible to the daemon.
// Generation is an opaque fingerprint that changes whenever the set of
// elements is replaced wholesale (the moral equivalent of a navigation):
// the watcher reacts by detaching everything and rediscovering from
// scratch rather than diffing across the boundary.
type Provider interface {
	Generation() (string, error)
	Elements() ([]engine.MediaElement, error)
}
