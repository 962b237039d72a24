package catalog

// Layout is an install-type option code.
type Layout string

const (
	LayoutFlat    Layout = "flat"
	LayoutModular Layout = "modular"
)

// Valid reports whether l is a known layout.
func (l Layout) Valid() bool {
	return l == LayoutFlat || l == LayoutModular
}

// Container is a container option code.
type Container string

const (
	ContainerAuraDi                Container = "1"
	ContainerPimple                Container = "2"
	ContainerLaminasServiceManager Container = "3"
	ContainerAuryn                 Container = "4"
	ContainerSymfonyDI             Container = "5"
	ContainerPhpDI                 Container = "6"
	ContainerChubbyphp             Container = "7"
)

// Containers lists every container code in catalog order.
var Containers = []Container{
	ContainerAuraDi,
	ContainerPimple,
	ContainerLaminasServiceManager,
	ContainerAuryn,
	ContainerSymfonyDI,
	ContainerPhpDI,
	ContainerChubbyphp,
}

// Router is a router option code.
type Router string

const (
	RouterAura    Router = "1"
	RouterFast    Router = "2"
	RouterLaminas Router = "3"
)

// Routers lists every router code in catalog order.
var Routers = []Router{RouterAura, RouterFast, RouterLaminas}

// Renderer is a template-engine option code.
type Renderer string

const (
	RendererPlates      Renderer = "1"
	RendererTwig        Renderer = "2"
	RendererLaminasView Renderer = "3"
	RendererNone        Renderer = NoneCode
)

// Renderers lists the renderer codes that install something.
var Renderers = []Renderer{RendererPlates, RendererTwig, RendererLaminasView}

// ErrorHandler is an error-handler option code.
type ErrorHandler string

const (
	ErrorHandlerWhoops ErrorHandler = "1"
	ErrorHandlerNone   ErrorHandler = NoneCode
)
