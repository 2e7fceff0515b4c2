package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the widget's HTTP surface
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(), CORS())

	r.GET("/health", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("", h.APIInfo)

		searchGroup := apiGroup.Group("/search")
		{
			searchGroup.GET("", h.GetResults)
			searchGroup.PUT("/query", h.SetQuery)
			searchGroup.PUT("/page", h.SetPage)
			searchGroup.POST("/next", h.NextPage)
			searchGroup.POST("/prev", h.PrevPage)
			searchGroup.POST("/refresh", h.Refresh)
			searchGroup.GET("/events", h.StreamEvents)
		}

		selection := apiGroup.Group("/selection")
		{
			selection.GET("", h.GetSelection)
			selection.POST("", h.SelectResult)
			selection.DELETE("", h.DismissSelection)
			selection.POST("/toggle", h.ToggleSelection)
		}

		list := apiGroup.Group("/reading-list")
		{
			list.GET("", h.ListReadingList)
			list.DELETE("", h.RemoveFromReadingList)
			list.POST("/toggle", h.ToggleReadingList)
			list.GET("/export", h.ExportReadingList)
			list.POST("/import", h.ImportReadingList)
		}
	}

	return r
}
