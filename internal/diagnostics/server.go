// Package diagnostics implements the optional loopback-only HTTP surface
// /healthz for liveness plus host resource figures, and /snapshot
// for a JSON dump of the last-published pack state. Off by default, enabled
// by --diag-addr. Grounded on the donor's internal/api gin.Engine +
// http.Server lifecycle pattern; the handler/health-checker split is
// adapted from internal/health's Checker interface, collapsed here to the
// one liveness check this daemon actually needs.
package diagnostics

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"ubmsbridge/internal/publisher"
)

// Server is the diagnostics HTTP surface.
type Server struct {
	loop      *publisher.Loop
	startedAt time.Time
	log       *zap.Logger
}

// New returns a Server backed by loop's last-published Snapshot.
func New(loop *publisher.Loop, logger *zap.Logger) *Server {
	return &Server{
		loop:      loop,
		startedAt: time.Now(),
		log:       logger.With(zap.String("component", "diagnostics")),
	}
}

// Router builds the gin.Engine serving /healthz and /snapshot.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", s.handleHealthz)
	r.GET("/snapshot", s.handleSnapshot)
	return r
}

type healthzResponse struct {
	Connected    bool    `json:"connected"`
	LastFrameAge float64 `json:"lastFrameAgeSeconds"`
	UptimeSec    float64 `json:"uptimeSeconds"`

	LoadAvg1  float64 `json:"loadAvg1,omitempty"`
	MemUsedPc float64 `json:"memUsedPercent,omitempty"`
	DiskFreeB uint64  `json:"diskFreeBytes,omitempty"`
}

func (s *Server) handleHealthz(c *gin.Context) {
	snap := s.loop.Last()

	resp := healthzResponse{
		Connected: snap.Connected,
		UptimeSec: time.Since(s.startedAt).Seconds(),
	}
	if !snap.LastFrameTimestamp.IsZero() {
		resp.LastFrameAge = time.Since(snap.LastFrameTimestamp).Seconds()
	}

	if l, err := load.Avg(); err == nil {
		resp.LoadAvg1 = l.Load1
	} else {
		s.log.Debug("load average unavailable", zap.Error(err))
	}
	if m, err := mem.VirtualMemory(); err == nil {
		resp.MemUsedPc = m.UsedPercent
	} else {
		s.log.Debug("memory stats unavailable", zap.Error(err))
	}
	if d, err := disk.Usage("/"); err == nil {
		resp.DiskFreeB = d.Free
	} else {
		s.log.Debug("disk stats unavailable", zap.Error(err))
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.loop.Last())
}
