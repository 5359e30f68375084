package handler

import (
	"github.com/ythchandraap/expert-printer-guide/internal/interfaces/http/middleware"
	"github.com/ythchandraap/expert-printer-guide/internal/interfaces/http/router"
)

// ConnectRoutes creates the route group clients use to print and query
// the bridge. Uploads are capped at maxBodySize bytes.
func ConnectRoutes(
	printHandler *PrintHandler,
	jobs *JobHandler,
	printers *PrinterHandler,
	system *SystemHandler,
	maxBodySize int64,
) *router.DomainGroup {
	group := router.NewDomainGroup("connect", "/connect")
	group.Use(middleware.Secure())

	group.POST("/print", middleware.BodyLimit(maxBodySize), printHandler.Print)
	group.GET("/jobs/:id", jobs.GetJob)
	group.GET("/printers", printers.ListPrinters)
	group.GET("/system", system.GetSystemInfo)

	return group
}

// HealthRoutes creates the liveness probe route
func HealthRoutes(system *SystemHandler) *router.DomainGroup {
	return router.NewDomainGroup("health", "/").GET("/health", system.Health)
}

// ViewerRoutes creates the routes the rendering surface loads documents from
func ViewerRoutes(viewer *ViewerHandler) *router.DomainGroup {
	group := router.NewDomainGroup("viewer", "/viewer")
	group.GET("/", viewer.Page)
	group.GET("/document/:name", viewer.Document)
	return group
}
