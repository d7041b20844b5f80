package cpu

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Mem is the guest memory of a 32-bit machine.
// MemRead/MemWrite are direct and unobserved, ReadUint/WriteUint are the
// interpreter's path and are reported to the observer.
type Mem struct {
	sim      *MemSim
	order    binary.ByteOrder
	observer MemObserver
}

func NewMem(order binary.ByteOrder) *Mem {
	return &Mem{sim: &MemSim{}, order: order}
}

func (m *Mem) ByteOrder() binary.ByteOrder {
	return m.order
}

func (m *Mem) SetObserver(o MemObserver) {
	m.observer = o
}

func (m *Mem) Mappings() Regions {
	return m.sim.Regions()
}

func inRange(addr, size uint64) bool {
	return size > 0 && addr+size <= 1<<32
}

func (m *Mem) MemMapProt(addr, size uint64, prot int) error {
	return m.MemMapDesc(addr, size, prot, "")
}

func (m *Mem) MemMapDesc(addr, size uint64, prot int, desc string) error {
	if !inRange(addr, size) {
		return errors.Errorf("region %#x+%#x outside memory range", addr, size)
	}
	m.sim.Map(addr, size, prot, desc)
	return nil
}

func (m *Mem) MemReadInto(p []byte, addr uint64) error {
	return m.sim.Read(addr, p, 0)
}

func (m *Mem) MemRead(addr, size uint64) ([]byte, error) {
	p := make([]byte, size)
	if err := m.MemReadInto(p, addr); err != nil {
		return nil, err
	}
	return p, nil
}

func (m *Mem) MemWrite(addr uint64, p []byte) error {
	return m.sim.Write(addr, p, 0)
}

// Read while checking protections. Used for instruction fetch and by ReadUint.
func (m *Mem) ReadProt(addr, size uint64, prot int) ([]byte, error) {
	p := make([]byte, size)
	if err := m.sim.Read(addr, p, prot); err != nil {
		return nil, err
	}
	return p, nil
}

func (m *Mem) WriteProt(addr uint64, p []byte, prot int) error {
	return m.sim.Write(addr, p, prot)
}

func (m *Mem) unpack(size int, p []byte) (uint64, error) {
	switch size {
	case 8:
		return m.order.Uint64(p), nil
	case 4:
		return uint64(m.order.Uint32(p)), nil
	case 2:
		return uint64(m.order.Uint16(p)), nil
	case 1:
		return uint64(p[0]), nil
	}
	return 0, errors.Errorf("unsupported uint size: %d", size)
}

func (m *Mem) pack(size int, p []byte, val uint64) error {
	switch size {
	case 8:
		m.order.PutUint64(p, val)
	case 4:
		m.order.PutUint32(p, uint32(val))
	case 2:
		m.order.PutUint16(p, uint16(val))
	case 1:
		p[0] = byte(val)
	default:
		return errors.Errorf("unsupported uint size: %d", size)
	}
	return nil
}

// ReadUint reads size bytes with protection checks. Fetches (PROT_EXEC) are not
// reported to the observer, data reads are reported after they succeed.
func (m *Mem) ReadUint(addr uint32, size, prot int) (uint64, error) {
	if size > 8 {
		return 0, errors.Errorf("ReadUint size too large: %d > 8", size)
	}
	p, err := m.ReadProt(uint64(addr), uint64(size), prot)
	if err != nil {
		return 0, err
	}
	val, err := m.unpack(size, p)
	if err != nil {
		return 0, err
	}
	if m.observer != nil && prot&PROT_EXEC == 0 {
		if err := m.observer.OnRead(size, addr); err != nil {
			return val, err
		}
	}
	return val, nil
}

// WriteUint writes size bytes with protection checks and reports the write to
// the observer once it has landed.
func (m *Mem) WriteUint(addr uint32, size, prot int, val uint64) error {
	var buf [8]byte
	if size > 8 {
		return errors.Errorf("WriteUint size too large: %d > 8", size)
	}
	if err := m.pack(size, buf[:size], val); err != nil {
		return err
	}
	if err := m.WriteProt(uint64(addr), buf[:size], prot); err != nil {
		return err
	}
	if m.observer != nil {
		return m.observer.OnWrite(size, addr)
	}
	return nil
}

// DirectUint is an unobserved, unprotected sized read.
func (m *Mem) DirectUint(addr uint32, size int) (uint64, error) {
	var buf [8]byte
	if size > 8 {
		return 0, errors.Errorf("DirectUint size too large: %d > 8", size)
	}
	if err := m.MemReadInto(buf[:size], uint64(addr)); err != nil {
		return 0, err
	}
	return m.unpack(size, buf[:size])
}

// DirectPutUint is an unobserved, unprotected sized write.
func (m *Mem) DirectPutUint(addr uint32, size int, val uint64) error {
	var buf [8]byte
	if size > 8 {
		return errors.Errorf("DirectPutUint size too large: %d > 8", size)
	}
	if err := m.pack(size, buf[:size], val); err != nil {
		return err
	}
	return m.MemWrite(uint64(addr), buf[:size])
}
