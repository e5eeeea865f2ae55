package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aurahq/aura-backend/internal/dispatch"
	"github.com/aurahq/aura-backend/internal/http/response"
)

// AdminHandler exposes the scheduler's tick and batch entry points for
// operators, on top of the background loops.
type AdminHandler struct {
	dispatcher *dispatch.Dispatcher
	worker     *dispatch.Worker
}

func NewAdminHandler(dispatcher *dispatch.Dispatcher, worker *dispatch.Worker) *AdminHandler {
	return &AdminHandler{dispatcher: dispatcher, worker: worker}
}

// POST /admin/dispatch/tick
func (h *AdminHandler) RunTick(c *gin.Context) {
	summary := h.dispatcher.RunTick(c.Request.Context(), time.Now())
	errs := make([]string, 0, len(summary.Errors))
	for _, err := range summary.Errors {
		errs = append(errs, err.Error())
	}
	response.RespondOK(c, gin.H{
		"enqueued": summary.Enqueued,
		"skipped":  summary.Skipped,
		"errors":   errs,
	})
}

// POST /admin/worker/batch?size=20
func (h *AdminHandler) RunBatch(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	summary := h.worker.RunBatch(c.Request.Context(), size)
	response.RespondOK(c, gin.H{
		"picked": summary.Picked,
		"done":   summary.Done,
		"errors": summary.Errors,
	})
}
