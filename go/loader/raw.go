package loader

import "github.com/sheepshaver/sheepbug/go/models/cpu"

// RawLoader treats a file as a flat big-endian code image.
type RawLoader struct {
	LoaderHeader
	base uint64
	data []byte
}

func NewRawLoader(data []byte, base, entry uint64) *RawLoader {
	return &RawLoader{
		LoaderHeader: LoaderHeader{arch: "ppc", entry: entry},
		base:         base,
		data:         data,
	}
}

func (r *RawLoader) Segments() ([]Segment, error) {
	return []Segment{{Addr: r.base, Data: r.data, Prot: cpu.PROT_ALL, Desc: "raw"}}, nil
}
