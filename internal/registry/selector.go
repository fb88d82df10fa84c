package registry

import "math"

// Selection names the backend chosen by Select.
type Selection struct {
	WorkerIndex int
	Slot        SlotCoord
	ClientCount int64
	Port        uint16
	IP          [4]byte
}

// Select scans every worker's pool slice and returns the backend with the
// lowest non-negative client count, i.e. the least-loaded ready backend.
// Ties are broken by scan order — lower worker index first, then lower
// chunk index, then lower slot index — which is exactly declaration order,
// so the first row seen with a given minimum count wins and is never
// displaced by a later row reporting the same count.
//
// Select is wait-free: it never blocks on another worker and its result
// reflects a momentary, possibly already-stale view of the pool, which
// matches the source's GetBestServer — callers get "best effort at read
// time," not a snapshot isolated from concurrent STATUS updates.
func Select(dir *Directory) (Selection, bool) {
	best := Selection{ClientCount: math.MaxInt64}
	found := false

	for w := 0; w < dir.WorkerCount(); w++ {
		dir.Slice(w).Scan(func(coord SlotCoord, count int64, row AddressRow) {
			if count < 0 {
				return
			}
			if count < best.ClientCount {
				best = Selection{
					WorkerIndex: w,
					Slot:        coord,
					ClientCount: count,
					Port:        row.Port,
					IP:          row.IP,
				}
				found = true
			}
		})
	}

	return best, found
}
