package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repeat-task-service/internal/repeat-manager/recurrence"
	"repeat-task-service/internal/repeat-manager/services"
)

var today = recurrence.Date{Year: 2024, Month: time.March, Day: 8}

type fakeSync struct {
	ranFor     []recurrence.Date
	previewFor recurrence.Date
	queryErr   error
}

func (f *fakeSync) RunCycle(ctx context.Context) services.Report {
	return f.RunCycleFor(ctx, today)
}

func (f *fakeSync) RunCycleFor(ctx context.Context, date recurrence.Date) services.Report {
	f.ranFor = append(f.ranFor, date)
	r := services.Report{RunID: "run-1", Date: date, Due: 1, Created: 1, Results: []services.InstanceResult{}}
	if f.queryErr != nil {
		r = services.Report{RunID: "run-1", Date: date, QueryError: f.queryErr.Error()}
	}
	return r
}

func (f *fakeSync) Preview(ctx context.Context, date recurrence.Date) ([]recurrence.Instance, error) {
	f.previewFor = date
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return []recurrence.Instance{{
		TemplateID: "tmpl-1",
		DoDate:     date,
		Properties: recurrence.Properties{"Repeating": map[string]any{"checkbox": true}},
	}}, nil
}

func (f *fakeSync) Today() recurrence.Date { return today }

type fakeScheduler struct {
	next      time.Time
	err       error
	refreshed int
}

func (f *fakeScheduler) NextRun() (time.Time, error) { return f.next, f.err }

func (f *fakeScheduler) Refresh() error {
	f.refreshed++
	return f.err
}

func setupSyncRouter(sync *fakeSync, sched *fakeScheduler) *route.Engine {
	hlog.SetLevel(hlog.LevelFatal)
	h := server.Default(
		server.WithHostPorts("127.0.0.1:0"),
		server.WithExitWaitTime(time.Duration(0)),
	)
	RegisterRoutes(h.Engine, NewSyncHandler(sync, sched), nil)
	return h.Engine
}

func TestPing(t *testing.T) {
	router := setupSyncRouter(&fakeSync{}, &fakeScheduler{})
	resp := ut.PerformRequest(router, "GET", "/ping", nil).Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.JSONEq(t, `{"message":"pong"}`, string(resp.Body()))
}

func TestRunSyncAPI(t *testing.T) {
	sync := &fakeSync{}
	router := setupSyncRouter(sync, &fakeScheduler{})

	resp := ut.PerformRequest(router, "POST", "/sync/run", nil).Result()
	require.Equal(t, http.StatusOK, resp.StatusCode())
	var report services.Report
	require.NoError(t, json.Unmarshal(resp.Body(), &report))
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, 1, report.Created)

	resp = ut.PerformRequest(router, "POST", "/sync/run?date=2024-03-11", nil).Result()
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, []recurrence.Date{today, {Year: 2024, Month: time.March, Day: 11}}, sync.ranFor)
}

func TestRunSyncAPI_BadDate(t *testing.T) {
	sync := &fakeSync{}
	router := setupSyncRouter(sync, &fakeScheduler{})

	resp := ut.PerformRequest(router, "POST", "/sync/run?date=tomorrow", nil).Result()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	assert.Empty(t, sync.ranFor)
}

func TestRunSyncAPI_QueryFailure(t *testing.T) {
	router := setupSyncRouter(&fakeSync{queryErr: errors.New("notion down")}, &fakeScheduler{})

	resp := ut.PerformRequest(router, "POST", "/sync/run", nil).Result()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), "notion down")
}

func TestPreviewAPI(t *testing.T) {
	sync := &fakeSync{}
	router := setupSyncRouter(sync, &fakeScheduler{})

	resp := ut.PerformRequest(router, "GET", "/sync/preview?date=2024-04-01", nil).Result()
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.JSONEq(t, `{
		"date": "2024-04-01",
		"count": 1,
		"instances": [{"template_id": "tmpl-1", "do_date": "2024-04-01", "properties": {"Repeating": {"checkbox": true}}}]
	}`, string(resp.Body()))

	resp = ut.PerformRequest(router, "GET", "/sync/preview", nil).Result()
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, today, sync.previewFor)
}

func TestPreviewAPI_QueryFailure(t *testing.T) {
	router := setupSyncRouter(&fakeSync{queryErr: errors.New("notion down")}, &fakeScheduler{})
	resp := ut.PerformRequest(router, "GET", "/sync/preview", nil).Result()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode())
}

func TestSchedulerAPI(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	sched := &fakeScheduler{next: time.Date(2024, 3, 9, 2, 0, 0, 0, loc)}
	router := setupSyncRouter(&fakeSync{}, sched)

	resp := ut.PerformRequest(router, "GET", "/scheduler/next", nil).Result()
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.JSONEq(t, `{"next_run":"2024-03-09T02:00:00-05:00"}`, string(resp.Body()))

	resp = ut.PerformRequest(router, "POST", "/admin/scheduler/refresh", nil).Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, 1, sched.refreshed)
}

func TestSchedulerAPI_NotScheduled(t *testing.T) {
	router := setupSyncRouter(&fakeSync{}, &fakeScheduler{err: services.ErrNotScheduled})
	resp := ut.PerformRequest(router, "GET", "/scheduler/next", nil).Result()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode())

	resp = ut.PerformRequest(router, "POST", "/admin/scheduler/refresh", nil).Result()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode())
}

func TestRecordRoutesOnlyWithSQLStore(t *testing.T) {
	router := setupSyncRouter(&fakeSync{}, &fakeScheduler{})
	resp := ut.PerformRequest(router, "GET", "/templates", nil).Result()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
}
