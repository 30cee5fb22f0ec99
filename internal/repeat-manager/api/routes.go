package api

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/route"
)

// RegisterRoutes mounts the admin API. records is nil unless the SQL store
// is in use.
func RegisterRoutes(r *route.Engine, sync *SyncHandler, records *RecordHandler) {
	r.GET("/ping", func(ctx context.Context, c *app.RequestContext) {
		c.JSON(http.StatusOK, utils.H{"message": "pong"})
	})

	syncGroup := r.Group("/sync")
	{
		syncGroup.POST("/run", sync.RunSync)
		syncGroup.GET("/preview", sync.PreviewSync)
	}
	r.GET("/scheduler/next", sync.NextRun)
	r.POST("/admin/scheduler/refresh", sync.RefreshScheduler)

	if records == nil {
		return
	}
	templateGroup := r.Group("/templates")
	{
		templateGroup.POST("", records.CreateTemplate)
		templateGroup.GET("", records.GetTemplates)
		templateGroup.GET("/:id", records.GetTemplateByID)
		templateGroup.DELETE("/:id", records.DeleteTemplate)
	}
	r.GET("/instances", records.GetInstances)
}
