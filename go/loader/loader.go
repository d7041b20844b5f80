package loader

import "encoding/binary"

type Segment struct {
	Addr uint64
	Data []byte
	Prot int
	Desc string
}

type Loader interface {
	Arch() string
	ByteOrder() binary.ByteOrder
	Entry() uint64
	Segments() ([]Segment, error)
}

type LoaderHeader struct {
	arch      string
	byteOrder binary.ByteOrder
	entry     uint64
}

func (l *LoaderHeader) Arch() string {
	return l.arch
}

func (l *LoaderHeader) ByteOrder() binary.ByteOrder {
	if l.byteOrder == nil {
		return binary.BigEndian
	}
	return l.byteOrder
}

func (l *LoaderHeader) Entry() uint64 {
	return l.entry
}

// Mapper is guest memory that image segments can be mapped into.
type Mapper interface {
	MemMapDesc(addr, size uint64, prot int, desc string) error
	MemWrite(addr uint64, p []byte) error
}

// Map copies every segment of l into mem.
func Map(l Loader, mem Mapper) error {
	segs, err := l.Segments()
	if err != nil {
		return err
	}
	for _, seg := range segs {
		if len(seg.Data) == 0 {
			continue
		}
		if err := mem.MemMapDesc(seg.Addr, uint64(len(seg.Data)), seg.Prot, seg.Desc); err != nil {
			return err
		}
		if err := mem.MemWrite(seg.Addr, seg.Data); err != nil {
			return err
		}
	}
	return nil
}
