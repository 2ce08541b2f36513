// Package monitor exposes a live view of a training run over HTTP.
package monitor

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Status is a point-in-time view of a training run
type Status struct {
	Step       int     `json:"step"`
	Episode    int     `json:"episode"`
	MeanReturn float64 `json:"mean_return"`
	ActorLoss  float64 `json:"actor_loss"`
	CriticLoss float64 `json:"critic_loss"`
	Done       bool    `json:"done"`
}

// Server serves the current status of a run
type Server struct {
	addr   string
	source func() Status
}

func NewServer(addr string, source func() Status) *Server {
	return &Server{addr: addr, source: source}
}

// Start blocks serving requests; run it in a goroutine alongside
// training
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.source())
	})
	return r.Run(s.addr)
}
