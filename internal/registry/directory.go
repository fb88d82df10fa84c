package registry

// Directory is the process-wide pool directory: one PoolSlice per worker,
// built once before any worker starts and never itself mutated afterward.
// Every worker is handed the same *Directory; each may only write through
// its own Slice(workerIndex) but may read any slice for selection.
type Directory struct {
	slices []*PoolSlice
}

// NewDirectory allocates a directory with one empty slice per worker, using
// DefaultChunkCapacity for every slice's chunk size.
func NewDirectory(workerCount int) *Directory {
	return NewDirectoryWithCapacity(workerCount, DefaultChunkCapacity)
}

// NewDirectoryWithCapacity allocates a directory whose slices allocate
// chunks of the given capacity, e.g. from config.Config.Server.ChunkCapacity.
func NewDirectoryWithCapacity(workerCount, chunkCapacity int) *Directory {
	if chunkCapacity <= 0 {
		chunkCapacity = DefaultChunkCapacity
	}
	d := &Directory{slices: make([]*PoolSlice, workerCount)}
	for i := range d.slices {
		d.slices[i] = &PoolSlice{capacity: chunkCapacity}
	}
	return d
}

// WorkerCount returns the number of slices in the directory.
func (d *Directory) WorkerCount() int { return len(d.slices) }

// Slice returns the pool slice owned by worker i.
func (d *Directory) Slice(i int) *PoolSlice { return d.slices[i] }
