package mem

import "fmt"

// PoolStats describes one pool.
type PoolStats struct {
	// Base is the address of the first byte of the pool.
	Base Addr

	// TotalBytes is the pool capacity.
	TotalBytes int

	// UsedBytes is the sum of live block sizes.
	UsedBytes int

	// LargestFree is the largest contiguous free range.
	LargestFree int

	// Blocks is the number of live blocks.
	Blocks int
}

// MemoryStats contains allocator usage statistics.
type MemoryStats struct {
	Main PoolStats
	Temp PoolStats
}

// String returns a human-readable summary.
func (s MemoryStats) String() string {
	return fmt.Sprintf("Memory[main %d/%d KB in %d blocks, temp %d/%d KB in %d blocks]",
		s.Main.UsedBytes/1024, s.Main.TotalBytes/1024, s.Main.Blocks,
		s.Temp.UsedBytes/1024, s.Temp.TotalBytes/1024, s.Temp.Blocks)
}

// Stats returns a snapshot of both pools.
func (a *Allocator) Stats() MemoryStats {
	return MemoryStats{Main: a.main.stats(), Temp: a.temp.stats()}
}

func (p *pool) stats() PoolStats {
	s := PoolStats{Base: p.base, TotalBytes: len(p.data)}
	for _, b := range p.blocks {
		if b.used {
			s.UsedBytes += b.size
			s.Blocks++
		} else if b.size > s.LargestFree {
			s.LargestFree = b.size
		}
	}
	return s
}
