package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arenshaw/reactorlb/internal/admin/models"
	"github.com/arenshaw/reactorlb/internal/registry"
)

// stateName classifies a raw client-count cell into the lifecycle state a
// reader of the admin API cares about.
func stateName(count int64) string {
	switch count {
	case registry.NotReady:
		return "not_ready"
	case registry.Disconnected:
		return "disconnected"
	case registry.NeverUsed:
		return "never_used"
	default:
		return "ready"
	}
}

// Pool returns a snapshot of every backend ever registered across every
// worker's pool slice, for diagnostics only — it is never consulted by the
// selection path itself.
func (h *Handler) Pool(c *gin.Context) {
	resp := models.PoolResponse{Backends: []models.BackendView{}}

	if h.dir == nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	for w := 0; w < h.dir.WorkerCount(); w++ {
		slice := h.dir.Slice(w)
		slice.Scan(func(coord registry.SlotCoord, count int64, row registry.AddressRow) {
			view := models.BackendView{
				WorkerIndex: w,
				Chunk:       coord.Chunk,
				Slot:        coord.Slot,
				IP:          fmt.Sprintf("%d.%d.%d.%d", row.IP[0], row.IP[1], row.IP[2], row.IP[3]),
				Port:        row.Port,
				ClientCount: count,
				State:       stateName(count),
			}
			resp.Backends = append(resp.Backends, view)
			resp.Summary.TotalBackends++
			switch view.State {
			case "ready":
				resp.Summary.Ready++
			case "not_ready":
				resp.Summary.NotReady++
			case "disconnected":
				resp.Summary.Disconnected++
			}
		})
	}

	c.JSON(http.StatusOK, resp)
}

// poolSummary computes just the aggregate counts, for embedding in Stats
// without building the full backend list.
func (h *Handler) poolSummary() models.PoolSummary {
	var summary models.PoolSummary
	if h.dir == nil {
		return summary
	}
	for w := 0; w < h.dir.WorkerCount(); w++ {
		h.dir.Slice(w).Scan(func(_ registry.SlotCoord, count int64, _ registry.AddressRow) {
			summary.TotalBackends++
			switch stateName(count) {
			case "ready":
				summary.Ready++
			case "not_ready":
				summary.NotReady++
			case "disconnected":
				summary.Disconnected++
			}
		})
	}
	return summary
}
