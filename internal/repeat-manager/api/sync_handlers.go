package api

import (
	"context"
	"net/http"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"

	"repeat-task-service/internal/repeat-manager/recurrence"
	"repeat-task-service/internal/repeat-manager/services"
)

// SyncRunner is the part of services.SyncService the API drives.
type SyncRunner interface {
	RunCycle(ctx context.Context) services.Report
	RunCycleFor(ctx context.Context, date recurrence.Date) services.Report
	Preview(ctx context.Context, date recurrence.Date) ([]recurrence.Instance, error)
	Today() recurrence.Date
}

// JobScheduler is the part of services.SchedulerService the API drives.
type JobScheduler interface {
	NextRun() (time.Time, error)
	Refresh() error
}

type SyncHandler struct {
	Sync      SyncRunner
	Scheduler JobScheduler
}

func NewSyncHandler(sync SyncRunner, scheduler JobScheduler) *SyncHandler {
	return &SyncHandler{Sync: sync, Scheduler: scheduler}
}

type InstanceView struct {
	TemplateID string                `json:"template_id"`
	DoDate     recurrence.Date       `json:"do_date"`
	Properties recurrence.Properties `json:"properties"`
}

type PreviewResponse struct {
	Date      recurrence.Date `json:"date"`
	Count     int             `json:"count"`
	Instances []InstanceView  `json:"instances"`
}

// dateParam reads ?date=YYYY-MM-DD. ok is false after an error response
// has been written.
func dateParam(c *app.RequestContext) (d recurrence.Date, set bool, ok bool) {
	raw := c.Query("date")
	if raw == "" {
		return recurrence.Date{}, false, true
	}
	d, err := recurrence.ParseDate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.H{"error": "Invalid date, expected YYYY-MM-DD: " + raw})
		return recurrence.Date{}, false, false
	}
	return d, true, true
}

// RunSync runs a cycle now, for ?date= when given.
func (h *SyncHandler) RunSync(ctx context.Context, c *app.RequestContext) {
	date, set, ok := dateParam(c)
	if !ok {
		return
	}
	var report services.Report
	if set {
		report = h.Sync.RunCycleFor(ctx, date)
	} else {
		report = h.Sync.RunCycle(ctx)
	}
	if report.QueryFailed() {
		hlog.CtxErrorf(ctx, "Manual sync %s could not query templates: %s", report.RunID, report.QueryError)
		c.JSON(http.StatusBadGateway, report)
		return
	}
	hlog.CtxInfof(ctx, "Manual sync %s created %d of %d due instances", report.RunID, report.Created, report.Due)
	c.JSON(http.StatusOK, report)
}

func (h *SyncHandler) PreviewSync(ctx context.Context, c *app.RequestContext) {
	date, set, ok := dateParam(c)
	if !ok {
		return
	}
	if !set {
		date = h.Sync.Today()
	}
	instances, err := h.Sync.Preview(ctx, date)
	if err != nil {
		c.JSON(http.StatusBadGateway, utils.H{"error": "Failed to query repeat templates: " + err.Error()})
		return
	}
	resp := PreviewResponse{Date: date, Count: len(instances), Instances: make([]InstanceView, 0, len(instances))}
	for _, inst := range instances {
		resp.Instances = append(resp.Instances, InstanceView{
			TemplateID: inst.TemplateID,
			DoDate:     inst.DoDate,
			Properties: inst.Properties,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SyncHandler) NextRun(ctx context.Context, c *app.RequestContext) {
	next, err := h.Scheduler.NextRun()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, utils.H{"error": "No scheduled sync: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, utils.H{"next_run": next.Format(time.RFC3339)})
}

func (h *SyncHandler) RefreshScheduler(ctx context.Context, c *app.RequestContext) {
	if err := h.Scheduler.Refresh(); err != nil {
		c.JSON(http.StatusInternalServerError, utils.H{"error": "Failed to refresh scheduler: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, utils.H{"message": "Scheduler refresh triggered"})
}
