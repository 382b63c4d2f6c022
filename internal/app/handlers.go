package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"interview-scheduler/internal/meeting"
	"interview-scheduler/internal/scheduling"
	"interview-scheduler/internal/slots"
)

// POST /api/propose-interview
func (a *App) ProposeInterviewHandler(c *gin.Context) {
	var payload slots.Proposal
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := a.Scheduler.Propose(c.Request.Context(), payload)
	if err != nil {
		a.writeError(c, err)
		return
	}

	ids := make([]string, 0, len(created))
	for _, sl := range created {
		ids = append(ids, sl.ID)
	}
	c.JSON(http.StatusOK, gin.H{"ids": ids, "slots": created})
}

// GET /api/list-open-slots?candidateRef=
func (a *App) ListOpenSlotsHandler(c *gin.Context) {
	candidateRef := c.Query("candidateRef")
	if self, scoped := candidateScope(c); scoped {
		candidateRef = self
	}

	open, err := a.Slots.ListOpen(c.Request.Context(), candidateRef)
	if err != nil {
		a.writeError(c, err)
		return
	}
	if open == nil {
		open = []slots.Slot{}
	}
	c.JSON(http.StatusOK, open)
}

// POST /api/claim-slot
func (a *App) ClaimSlotHandler(c *gin.Context) {
	var req scheduling.ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if self, scoped := candidateScope(c); scoped {
		if req.CandidateRef != "" && req.CandidateRef != self {
			c.JSON(http.StatusForbidden, gin.H{"error": "cannot claim for another candidate"})
			return
		}
		req.CandidateRef = self
	}

	out, err := a.Scheduler.Claim(c.Request.Context(), req)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/slot/:id
func (a *App) GetSlotHandler(c *gin.Context) {
	sl, err := a.Slots.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sl)
}

// DELETE /api/slot/:id
func (a *App) DeleteSlotHandler(c *gin.Context) {
	id := c.Param("id")
	if err := a.Slots.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, slots.ErrSlotNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "slot not found or not open"})
			return
		}
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// GET /api/find-available-rooms?start=ISO&end=ISO&locale=
func (a *App) FindAvailableRoomsHandler(c *gin.Context) {
	start, end, ok := parseWindow(c, c.Query("start"), c.Query("end"))
	if !ok {
		return
	}
	rooms, err := a.Rooms.FindAvailableRooms(c.Request.Context(), start, end, c.Query("locale"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	if rooms == nil {
		rooms = []slots.RoomRef{}
	}
	c.JSON(http.StatusOK, rooms)
}

type checkRoomReq struct {
	RoomEmail string `json:"roomEmail" binding:"required,email"`
	Start     string `json:"start" binding:"required"`
	End       string `json:"end" binding:"required"`
}

// POST /api/check-room-availability
func (a *App) CheckRoomAvailabilityHandler(c *gin.Context) {
	var req checkRoomReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, end, ok := parseWindow(c, req.Start, req.End)
	if !ok {
		return
	}

	avail, err := a.Rooms.CheckRoomAvailability(c.Request.Context(), req.RoomEmail, start, end)
	if errors.Is(err, meeting.ErrResourceUnavailable) {
		a.Logger.Printf("room check for %s failed: %v", req.RoomEmail, err)
		c.JSON(http.StatusOK, gin.H{"available": false, "details": "calendar provider could not be reached"})
		return
	}
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": avail.Available, "details": avail.Busy})
}

func parseWindow(c *gin.Context, startStr, endStr string) (time.Time, time.Time, bool) {
	if startStr == "" || endStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end required (ISO8601)"})
		return time.Time{}, time.Time{}, false
	}
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start"})
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end"})
		return time.Time{}, time.Time{}, false
	}
	if !start.Before(end) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be before end"})
		return time.Time{}, time.Time{}, false
	}
	return start.UTC(), end.UTC(), true
}

// writeError maps domain errors to status codes. Anything unrecognised is a
// persistence failure.
func (a *App) writeError(c *gin.Context, err error) {
	var perr *slots.PersistenceError
	switch {
	case errors.Is(err, slots.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, slots.ErrSlotNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "slot not found"})
	case errors.Is(err, scheduling.ErrSlotConflict), errors.Is(err, slots.ErrSlotUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": "slot already booked or not available to this candidate"})
	case errors.As(err, &perr):
		a.Logger.Printf("persistence failure in %s: %v", perr.Op, perr.Err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
	default:
		a.Logger.Printf("unexpected error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
