package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"collaborative-codepad/internal/service"
)

// RoomHandler exposes the read-only room query surface.
type RoomHandler struct {
	session *service.SessionService
}

// NewRoomHandler creates a RoomHandler.
func NewRoomHandler(session *service.SessionService) *RoomHandler {
	if session == nil {
		panic("SessionService cannot be nil for RoomHandler")
	}
	return &RoomHandler{session: session}
}

// ListRooms returns lightweight metadata for all live rooms.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	infos := h.session.ListRooms()
	SuccessResponse(c, http.StatusOK, gin.H{"rooms": infos})
}

// GetRoom returns a single room's snapshot, live state first, durable
// snapshot as fallback.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID := c.Param("roomId")
	snapshot, err := h.session.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		logrus.WithField("room_id", roomID).WithError(err).Debug("Room lookup failed")
		HandleServiceError(c, err)
		return
	}

	members, err := snapshot.ParseActiveUsers()
	if err != nil {
		logrus.WithField("room_id", roomID).WithError(err).Error("Failed to parse room members")
		HandleServiceError(c, service.ErrInternalServer)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{
		"roomId":    snapshot.RoomID,
		"code":      snapshot.Code,
		"language":  snapshot.Language,
		"members":   members,
		"live":      h.session.IsLive(roomID),
		"createdAt": snapshot.CreatedAt,
		"updatedAt": snapshot.UpdatedAt,
	})
}
