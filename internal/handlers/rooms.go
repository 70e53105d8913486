package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/troom/internal/room"
)

// RoomLister is the read side of the room service.
type RoomLister interface {
	Rooms() []room.Summary
	Members(roomID string) ([]room.Member, bool)
}

// RoomsHandler serves room introspection endpoints.
type RoomsHandler struct {
	rooms RoomLister
}

// NewRoomsHandler creates a RoomsHandler.
func NewRoomsHandler(rooms RoomLister) *RoomsHandler {
	return &RoomsHandler{rooms: rooms}
}

// List handles GET /api/rooms.
func (h *RoomsHandler) List(c echo.Context) error {
	rooms := h.rooms.Rooms()
	return c.JSON(http.StatusOK, RoomsResponse{Rooms: rooms, Count: len(rooms)})
}

// Members handles GET /api/rooms/:room/members.
func (h *RoomsHandler) Members(c echo.Context) error {
	id := c.Param("room")
	members, ok := h.rooms.Members(id)
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
	}
	return c.JSON(http.StatusOK, MembersResponse{Room: id, Members: members})
}
