package debug

// Memory is the emulator's direct (unobserved) guest memory access path.
// It owns all fault semantics.
type Memory interface {
	DirectUint(addr uint32, size int) (uint64, error)
	DirectPutUint(addr uint32, size int, val uint64) error
}

// MemoryProxy gives the host sized access to guest memory. It does no checking
// of its own and never triggers read or write hooks.
type MemoryProxy struct {
	mem Memory
}

func NewMemoryProxy(m Memory) *MemoryProxy {
	return &MemoryProxy{mem: m}
}

func (m *MemoryProxy) read(addr uint32, size int) (uint32, error) {
	v, err := m.mem.DirectUint(addr, size)
	return uint32(v), err
}

func (m *MemoryProxy) Read8(addr uint32) (uint32, error)  { return m.read(addr, 1) }
func (m *MemoryProxy) Read16(addr uint32) (uint32, error) { return m.read(addr, 2) }
func (m *MemoryProxy) Read32(addr uint32) (uint32, error) { return m.read(addr, 4) }

func (m *MemoryProxy) Write8(addr, val uint32) error {
	return m.mem.DirectPutUint(addr, 1, uint64(val))
}

func (m *MemoryProxy) Write16(addr, val uint32) error {
	return m.mem.DirectPutUint(addr, 2, uint64(val))
}

func (m *MemoryProxy) Write32(addr, val uint32) error {
	return m.mem.DirectPutUint(addr, 4, uint64(val))
}
