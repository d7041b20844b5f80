package loader

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/sheepshaver/sheepbug/go/models/cpu"
)

type ElfLoader struct {
	LoaderHeader
	file *elf.File
}

var elfMagic = []byte{0x7f, 0x45, 0x4c, 0x46}

func MatchElf(r io.ReaderAt) bool {
	magic := make([]byte, len(elfMagic))
	r.ReadAt(magic, 0)
	return bytes.Equal(magic, elfMagic)
}

// NewElfLoader accepts 32-bit big-endian PowerPC executables only.
func NewElfLoader(r io.ReaderAt) (*ElfLoader, error) {
	file, err := elf.NewFile(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse ELF")
	}
	if file.Class != elf.ELFCLASS32 {
		return nil, errors.Errorf("unsupported ELF class: %s", file.Class)
	}
	if file.Data != elf.ELFDATA2MSB {
		return nil, errors.Errorf("unsupported ELF byte order: %s", file.Data)
	}
	if file.Machine != elf.EM_PPC {
		return nil, errors.Errorf("unsupported machine: %s", file.Machine)
	}
	return &ElfLoader{
		LoaderHeader: LoaderHeader{
			arch:      "ppc",
			byteOrder: binary.BigEndian,
			entry:     file.Entry,
		},
		file: file,
	}, nil
}

func progProt(flags elf.ProgFlag) int {
	prot := cpu.PROT_NONE
	if flags&elf.PF_R != 0 {
		prot |= cpu.PROT_READ
	}
	if flags&elf.PF_W != 0 {
		prot |= cpu.PROT_WRITE
	}
	if flags&elf.PF_X != 0 {
		prot |= cpu.PROT_EXEC
	}
	return prot
}

func (e *ElfLoader) Segments() ([]Segment, error) {
	ret := make([]Segment, 0, len(e.file.Progs))
	for i, prog := range e.file.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		if prog.Filesz > prog.Memsz {
			return nil, errors.Errorf("segment %d: file size %#x exceeds memory size %#x", i, prog.Filesz, prog.Memsz)
		}
		data := make([]byte, prog.Memsz)
		if _, err := io.ReadFull(prog.Open(), data[:prog.Filesz]); err != nil {
			return nil, errors.Wrapf(err, "failed to read segment %d", i)
		}
		ret = append(ret, Segment{
			Addr: prog.Vaddr,
			Data: data,
			Prot: progProt(prog.Flags),
			Desc: fmt.Sprintf("elf %s", prog.Flags),
		})
	}
	return ret, nil
}
