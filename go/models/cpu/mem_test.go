package cpu

import (
	"bytes"
	"encoding/binary"
	"testing"
)

var asdf = []byte("asdf")

func TestMemRange(t *testing.T) {
	mem := NewMem(binary.BigEndian)
	if err := mem.MemMapProt(0xfffff000, 0x1000, 0); err != nil {
		t.Fatal("failed to map top of memory:", err)
	}
	if err := mem.MemMapProt(0xfffff000, 0x2000, 0); err == nil {
		t.Fatal("mapped memory outside range")
	}
	if err := mem.MemWrite(0x1000, asdf); err == nil {
		t.Error("write succeeded to unmapped memory")
	}
}

func TestMem(t *testing.T) {
	mappings := [][]uint64{
		{0x1000, 0x1000, PROT_READ | PROT_WRITE | PROT_EXEC},
		{0x2000, 0x1000, PROT_READ},
		{0x3000, 0x1000, PROT_READ | PROT_WRITE},
		{0x4000, 0x1000, PROT_READ | PROT_EXEC},
		{0x5000, 0x1000, PROT_EXEC},
	}

	mem := NewMem(binary.BigEndian)
	for _, v := range mappings {
		if err := mem.MemMapProt(v[0], v[1], int(v[2])); err != nil {
			t.Fatalf("failed to map memory (%#x, %#x, %d): %v", v[0], v[1], v[2], err)
		}
	}
	// write outside bounds
	if err := mem.MemWrite(0, asdf); err == nil {
		t.Error("write succeeded below mapped memory")
	}
	if err := mem.MemWrite(0x6000, asdf); err == nil {
		t.Error("write succeeded above mapped memory")
	}
	// direct writes ignore protections
	for _, v := range mappings {
		if err := mem.MemWrite(v[0], asdf); err != nil {
			t.Error("write failed inside mapped memory")
		}
	}
	for _, v := range mappings {
		if tmp, err := mem.MemRead(v[0], uint64(len(asdf))); err != nil {
			t.Error("read failed inside mapped memory")
		} else if !bytes.Equal(tmp, asdf) {
			t.Error("read returned bad value")
		}
	}
	tmp := make([]byte, 0x1000)
	for _, v := range mappings {
		if _, err := mem.ReadProt(v[0], v[1], int(v[2])); err != nil {
			t.Errorf("valid read failed on (%#x, %#x, %d): %v", v[0], v[1], v[2], err)
		}
		if _, err := mem.ReadProt(v[0], v[1], 8); err == nil {
			t.Errorf("invalid read succeeded on (%#x, %#x, %d)", v[0], v[1], v[2])
		}
		if err := mem.WriteProt(v[0], tmp, int(v[2])); err != nil {
			t.Errorf("valid write failed on (%#x, %#x, %d): %v", v[0], v[1], v[2], err)
		}
		if err := mem.WriteProt(v[0], tmp, 8); err == nil {
			t.Errorf("invalid write succeeded on (%#x, %#x, %d)", v[0], v[1], v[2])
		}
	}
	for _, v := range mappings {
		if _, err := mem.ReadProt(v[0], v[1], PROT_EXEC); (v[2]&PROT_EXEC == 0 && err == nil) || (v[2]&PROT_EXEC == PROT_EXEC && err != nil) {
			t.Error("PROT_EXEC mismatch")
		}
	}
}

type accessLog struct {
	reads, writes []uint32
}

func (a *accessLog) OnRead(size int, addr uint32) error {
	a.reads = append(a.reads, addr)
	return nil
}

func (a *accessLog) OnWrite(size int, addr uint32) error {
	a.writes = append(a.writes, addr)
	return nil
}

func TestMemUint(t *testing.T) {
	rawtest := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	btable := map[int]uint64{
		1: 0x1,
		2: 0x0102,
		4: 0x01020304,
		8: 0x0102030405060708,
	}
	mem := NewMem(binary.BigEndian)
	if err := mem.MemMapProt(0x1000, 0x1000, PROT_READ|PROT_WRITE); err != nil {
		t.Fatal("failed to map memory:", err)
	}
	if err := mem.MemWrite(0x1000, rawtest); err != nil {
		t.Error("failed to write memory:", err)
	}
	for size, val := range btable {
		if n, err := mem.ReadUint(0x1000, size, PROT_READ); err != nil {
			t.Error("failed to read uint:", err)
		} else if n != val {
			t.Error("inconsistent uint value:", n, val)
		}
	}
	for size, val := range btable {
		if err := mem.WriteUint(0x1000, size, PROT_WRITE, val); err != nil {
			t.Error("failed to write uint:", err)
		}
		if n, err := mem.DirectUint(0x1000, size); err != nil {
			t.Error("failed to read uint:", err)
		} else if n != val {
			t.Error("inconsistent uint value:", n, val)
		}
	}
	if err := mem.WriteUint(0x1000, 3, PROT_WRITE, 0); err == nil {
		t.Error("odd uint size accepted")
	}
}

func TestMemObserver(t *testing.T) {
	mem := NewMem(binary.BigEndian)
	if err := mem.MemMapProt(0x1000, 0x1000, PROT_ALL); err != nil {
		t.Fatal(err)
	}
	log := &accessLog{}
	mem.SetObserver(log)
	mem.WriteUint(0x1000, 4, PROT_WRITE, 0xcafebabe)
	mem.ReadUint(0x1004, 2, PROT_READ)
	mem.ReadUint(0x1008, 4, PROT_EXEC)
	mem.DirectPutUint(0x100c, 4, 1)
	mem.DirectUint(0x100c, 4)
	if len(log.writes) != 1 || log.writes[0] != 0x1000 {
		t.Errorf("unexpected observed writes: %#x", log.writes)
	}
	if len(log.reads) != 1 || log.reads[0] != 0x1004 {
		t.Errorf("unexpected observed reads: %#x", log.reads)
	}
	// faulting access is not observed
	if err := mem.WriteUint(0x3000, 4, PROT_WRITE, 0); err == nil {
		t.Error("write to unmapped memory succeeded")
	} else if merr, ok := err.(*MemError); !ok || merr.Enum != MEM_WRITE_UNMAPPED {
		t.Errorf("unexpected error: %v", err)
	}
	if len(log.writes) != 1 {
		t.Error("faulting write was observed")
	}
}
