package cpu

// MemObserver is told about every data access the interpreter performs through
// Mem.ReadUint and Mem.WriteUint. Direct access (MemRead, MemWrite) is never observed.
// A non-nil error is handed back to the caller of the access.
type MemObserver interface {
	OnRead(size int, addr uint32) error
	OnWrite(size int, addr uint32) error
}
