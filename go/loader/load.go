package loader

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
)

type Options struct {
	// load address and entry point for raw images
	Base  uint64
	Entry uint64
}

func LoadFile(path string, opts Options) (Loader, error) {
	p, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read image")
	}
	return Load(p, opts)
}

// Load picks the ELF loader when the magic matches and falls back to a raw image.
func Load(p []byte, opts Options) (Loader, error) {
	if len(p) == 0 {
		return nil, errors.New("empty image")
	}
	if MatchElf(bytes.NewReader(p)) {
		l, err := NewElfLoader(bytes.NewReader(p))
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	entry := opts.Entry
	if entry == 0 {
		entry = opts.Base
	}
	return NewRawLoader(p, opts.Base, entry), nil
}
