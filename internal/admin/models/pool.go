package models

// BackendView is one backend row in the pool directory as exposed over the
// admin API: its stable slot coordinates, address, and last-observed
// client count (or lifecycle sentinel).
type BackendView struct {
	WorkerIndex int    `json:"worker_index"`
	Chunk       int    `json:"chunk"`
	Slot        int    `json:"slot"`
	IP          string `json:"ip"`
	Port        uint16 `json:"port"`
	ClientCount int64  `json:"client_count"`
	State       string `json:"state"`
}

// PoolSummary aggregates counts across the whole directory.
type PoolSummary struct {
	TotalBackends int `json:"total_backends"`
	Ready         int `json:"ready"`
	NotReady      int `json:"not_ready"`
	Disconnected  int `json:"disconnected"`
}

// PoolResponse is the full pool directory snapshot.
type PoolResponse struct {
	Summary  PoolSummary   `json:"summary"`
	Backends []BackendView `json:"backends"`
}
