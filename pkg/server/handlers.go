package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/henderiw/rangetable/pkg/conflict"
	"github.com/henderiw/rangetable/pkg/interval"
	"github.com/henderiw/rangetable/pkg/payload"
	"github.com/henderiw/rangetable/pkg/rangetable"
	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/sets"
)

// maxImportSize bounds the body of an import request.
const maxImportSize = 8 << 20

type roomView struct {
	RoomID       string              `json:"roomId"`
	Ranges       []interval.Interval `json:"ranges"`
	Conflicts    []int64             `json:"conflicts"`
	HasConflicts bool                `json:"hasConflicts"`
}

type snapshotView struct {
	MaxX              int64               `json:"maxX"`
	LastID            int64               `json:"lastId"`
	Ranges            []interval.Interval `json:"ranges"`
	Rooms             []roomView          `json:"rooms"`
	ConflictingPairs  int                 `json:"conflictingPairs"`
	ConflictingRanges int                 `json:"conflictingRanges"`
}

func newRoomView(rr conflict.RoomReport) roomView {
	return roomView{
		RoomID:       rr.RoomID,
		Ranges:       rr.Intervals,
		Conflicts:    sets.List(rr.Conflicts),
		HasConflicts: rr.HasConflicts(),
	}
}

// SnapshotHandler returns all ranges, or those matching the optional
// "selector" label query, with a conflict report for them.
func (h *Handler) SnapshotHandler(c *gin.Context) {
	var snap rangetable.Snapshot
	if s := c.Query("selector"); s != "" {
		selector, err := labels.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid selector", "message": err.Error()})
			return
		}
		snap = h.table.SnapshotByLabel(selector)
	} else {
		snap = h.table.Snapshot()
	}

	view := snapshotView{
		MaxX:              h.table.MaxX(),
		LastID:            snap.LastID,
		Ranges:            snap.Intervals,
		Rooms:             make([]roomView, 0, len(snap.Report.Rooms)),
		ConflictingPairs:  snap.Report.ConflictingPairs,
		ConflictingRanges: snap.Report.ConflictingIntervals,
	}
	for _, rr := range snap.Report.Rooms {
		view.Rooms = append(view.Rooms, newRoomView(rr))
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) ExportHandler(c *gin.Context) {
	var buf bytes.Buffer
	if err := payload.Encode(&buf, h.table.GetAll()); err != nil {
		h.log.Error("export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export ranges", "message": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="ranges.json"`)
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}

func (h *Handler) AddHandler(c *gin.Context) {
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	var candidate interval.Candidate
	if err := dec.Decode(&candidate); err != nil || candidate == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "message": "expected a JSON object with roomId, from and to"})
		return
	}

	iv, err := h.table.AddOne(candidate)
	if err != nil {
		h.writeError(c, "Invalid range", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"range": iv})
}

func (h *Handler) ImportHandler(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body", "message": err.Error()})
		return
	}
	if len(raw) > maxImportSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Import file too large"})
		return
	}

	summary, err := h.table.ImportPayload(raw)
	if err != nil {
		h.writeError(c, "Validation failed! No ranges were added.", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Successfully added %d range(s)!", summary.Added),
		"added":   summary.Added,
		"ranges":  summary.Intervals,
	})
}

func (h *Handler) RemoveHandler(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid range id", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": h.table.RemoveOne(id)})
}

func (h *Handler) ClearHandler(c *gin.Context) {
	h.table.Clear()
	c.Status(http.StatusNoContent)
}

func (h *Handler) RoomConflictsHandler(c *gin.Context) {
	roomID := interval.NormalizeRoomID(c.Param("roomId"))
	ivs := h.table.GetAll()
	c.JSON(http.StatusOK, newRoomView(conflict.RoomReport{
		RoomID:    roomID,
		Intervals: conflict.RoomIntervals(roomID, ivs),
		Conflicts: conflict.FindConflicts(roomID, ivs),
	}))
}

// writeError maps the rejection errors of the table to a response; anything
// else is an internal failure.
func (h *Handler) writeError(c *gin.Context, msg string, err error) {
	switch rangetable.Classify(err) {
	case rangetable.InvalidItems:
		var verrs interval.ValidationErrors
		errors.As(err, &verrs)
		h.log.Warn("request rejected", zap.Int("errors", len(verrs)))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": msg, "errors": verrs})
	case rangetable.InvalidStructure:
		h.log.Warn("request rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case rangetable.InvalidPayload:
		h.log.Warn("request rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "message": "Please ensure it's a valid JSON format."})
	default:
		h.log.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error", "message": err.Error()})
	}
}
