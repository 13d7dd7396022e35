package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-fiducial/pkg/hub"
)

// handleStatus returns the latest loop snapshot
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.statusMu.RLock()
	status := s.status
	s.statusMu.RUnlock()

	status.Clients = s.detectionHub.ClientCount()
	return c.JSON(status)
}

// handleDetections returns the most recent frame's detections
func (s *Server) handleDetections(c *fiber.Ctx) error {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return c.JSON(s.status.Detections)
}

// handleDetectionsWS streams one Event per processed frame
func (s *Server) handleDetectionsWS(c *websocket.Conn) {
	client := hub.NewClient(s.detectionHub, c)
	client.Run()
}
