package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/nfce/danfe/internal/interfaces/http/router"
)

// PrintRoutes creates the route group for the print endpoints
func PrintRoutes(handler *PrintHandler, middleware ...gin.HandlerFunc) *router.DomainGroup {
	group := router.NewDomainGroup("print", "")
	group.Use(middleware...)

	group.GET("/status", handler.GetStatus)
	group.POST("/status/check", handler.CheckBridge)

	group.GET("/preview", handler.GetPreview)
	group.POST("/preview", handler.PostPreview)

	prints := group.Group("print", "/print")
	prints.POST("/nfce", handler.PrintNFCe)
	prints.POST("/pdf", handler.PrintPDF)

	group.POST("/export", handler.ExportPDF)
	group.GET("/printers", handler.ListPrinters)

	group.GET("/jobs", handler.ListJobs)
	group.DELETE("/jobs", handler.PurgeJobs)

	return group
}
