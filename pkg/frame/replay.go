package frame

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// ErrNoImages is returned when a replay directory holds no supported images.
var ErrNoImages = errors.New("frame: no images to replay")

var replayExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".tif": true, ".tiff": true}

// Replay is a Source that cycles through the images in a directory in
// lexical order, standing in for a camera.
type Replay struct {
	paths []string
	next  int
	loop  bool
	cache map[string]image.Image
	mu    sync.Mutex
}

// NewReplay lists the images in dir. When loop is false, Read returns an
// empty frame once every image has been delivered.
func NewReplay(dir string, loop bool) (*Replay, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return nil, fmt.Errorf("frame: list %s: %w", dir, err)
	}
	var paths []string
	for _, m := range matches {
		if replayExts[strings.ToLower(filepath.Ext(m))] {
			paths = append(paths, m)
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, dir)
	}
	sort.Strings(paths)

	return &Replay{
		paths: paths,
		loop:  loop,
		cache: make(map[string]image.Image, len(paths)),
	}, nil
}

// Len returns the number of images in the sequence.
func (r *Replay) Len() int {
	return len(r.paths)
}

// Read decodes the next image.
func (r *Replay) Read() (Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.next >= len(r.paths) {
		if !r.loop {
			return NewImageFrame(nil), nil
		}
		r.next = 0
	}
	path := r.paths[r.next]
	r.next++

	img, ok := r.cache[path]
	if !ok {
		var err error
		img, err = imaging.Open(path)
		if err != nil {
			return nil, fmt.Errorf("frame: open %s: %w", path, err)
		}
		r.cache[path] = img
	}
	return NewImageFrame(img), nil
}

// Close drops cached images.
func (r *Replay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]image.Image)
	return nil
}
