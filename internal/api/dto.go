package api

// RootResponse is the discovery document served at GET /.
type RootResponse struct {
	Service   string                   `json:"service" example:"flatrest"`
	Resources map[string]ResourceRoutes `json:"resources"`
	Schemas   string                   `json:"schemas" example:"/schemas"`
	Info      string                   `json:"info" example:"/info"`
	Events    string                   `json:"events,omitempty" example:"/events"`
}

// ResourceRoutes describes the endpoints bound for one resource.
type ResourceRoutes struct {
	Collection RouteMethods `json:"collection"`
	Item       RouteMethods `json:"item"`
}

// RouteMethods is a path and the verbs it accepts.
type RouteMethods struct {
	Path    string   `json:"path" example:"/devices/{id}"`
	Methods []string `json:"methods" example:"GET,PUT,DELETE"`
}
