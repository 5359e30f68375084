package socket

import "github.com/ythchandraap/expert-printer-guide/internal/interfaces/http/router"

// DefaultPath is where the socket is mounted when no path is configured
const DefaultPath = "/socket"

// Routes mounts the hub's upgrade endpoint at path
func Routes(hub *Hub, path string) *router.DomainGroup {
	if path == "" {
		path = DefaultPath
	}
	return router.NewDomainGroup("socket", path).GET("", hub.Handle)
}
