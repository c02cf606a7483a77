package eval

import "github.com/grfkit/grfscope/internal/spritegroup"

// RegisterFile is the temporary storage register file: 0x110 slots
// written by store adjusts and read back through the temp-register
// variable. One file serves a whole top-level query, shared across
// every nested sub-resolve.
type RegisterFile struct {
	values [spritegroup.NumTempRegisters]uint32
}

// Get reads a register; out-of-range indices read as zero.
func (r *RegisterFile) Get(reg uint32) uint32 {
	if reg >= spritegroup.NumTempRegisters {
		return 0
	}
	return r.values[reg]
}

// Set writes a register; out-of-range indices are dropped.
func (r *RegisterFile) Set(reg uint32, value uint32) {
	if reg >= spritegroup.NumTempRegisters {
		return
	}
	r.values[reg] = value
}

// Reset zeroes every register.
func (r *RegisterFile) Reset() {
	r.values = [spritegroup.NumTempRegisters]uint32{}
}

// RegisterSnapshot is the scoped save/restore guard around the shared
// register file. Callers that must not observe another query's stores
// take a snapshot before the query and restore it afterwards:
//
//	snap := SnapshotRegisters(&ro.Registers)
//	defer snap.Restore()
//
// Restore is idempotent, so the guard is safe on every early-return
// path.
type RegisterSnapshot struct {
	target *RegisterFile
	saved  [spritegroup.NumTempRegisters]uint32
}

// SnapshotRegisters captures the current contents of a register file.
func SnapshotRegisters(target *RegisterFile) *RegisterSnapshot {
	return &RegisterSnapshot{target: target, saved: target.values}
}

// Restore writes the captured contents back.
func (s *RegisterSnapshot) Restore() {
	s.target.values = s.saved
}
