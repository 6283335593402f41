package media

import (
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"amp/internal/engine"
	"amp/internal/settings"
)

// FileElement is a media element backed by a WAV file. The hostname is
// derived from the file name so per-site settings can be exercised against
// plain files.
type FileElement struct {
	id       string
	hostname string
	path     string

	rateBits atomic.Uint64
	playing  atomic.Bool
}

func newFileElement(path string) *FileElement {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	el := &FileElement{
		id:       uuid.NewString(),
		hostname: settings.NormalizeHostname(base),
		path:     path,
	}
	el.rateBits.Store(math.Float64bits(1))
	el.playing.Store(true)
	return el
}

func (el *FileElement) ID() string       { return el.id }
func (el *FileElement) Hostname() string { return el.hostname }
func (el *FileElement) Playing() bool    { return el.playing.Load() }

// SetPlaybackRate adjusts the stream's effective rate. preservePitch is
// accepted for interface parity; a resampled file stream shifts pitch with
// rate regardless.
func (el *FileElement) SetPlaybackRate(rate float64, preservePitch bool) {
	if rate <= 0 {
		rate = 1
	}
	el.rateBits.Store(math.Float64bits(rate))
}

func (el *FileElement) rate() float64 {
	return math.Float64frombits(el.rateBits.Load())
}

// Source decodes the backing file and returns a rate-following stream.
func (el *FileElement) Source() (engine.SampleSource, error) {
	data, err := decodeWAV(el.path)
	if err != nil {
		return nil, err
	}
	return newWAVSource(data, el.rate, func() { el.playing.Store(false) }), nil
}

// DirectoryProvider discovers WAV files under a directory. Element
// identity is stable across scans for as long as the file exists; a file
// that disappears and returns is a new element.
type DirectoryProvider struct {
	dir string

	mu       sync.Mutex
	elements map[string]*FileElement
}

func NewDirectoryProvider(dir string) *DirectoryProvider {
	return &DirectoryProvider{dir: dir, elements: make(map[string]*FileElement)}
}

func (p *DirectoryProvider) list() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(p.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == p.dir {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".wav") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// Generation fingerprints the current file set.
func (p *DirectoryProvider) Generation() (string, error) {
	paths, err := p.list()
	if err != nil {
		return "", err
	}
	return strings.Join(paths, "\n"), nil
}

// Elements returns an element per discovered file, reusing identities for
// files seen before.
func (p *DirectoryProvider) Elements() ([]engine.MediaElement, error) {
	paths, err := p.list()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	current := make(map[string]struct{}, len(paths))
	out := make([]engine.MediaElement, 0, len(paths))
	for _, path := range paths {
		current[path] = struct{}{}
		el, ok := p.elements[path]
		if !ok {
			el = newFileElement(path)
			p.elements[path] = el
		}
		out = append(out, el)
	}
	for path := range p.elements {
		if _, ok := current[path]; !ok {
			delete(p.elements, path)
		}
	}
	return out, nil
}
