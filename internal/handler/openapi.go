package handler

import (
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/rosterhq/roster/internal/openapi"
)

// OpenAPIHandler serves the OpenAPI 3.1 document for the roster API. The
// document is static apart from the server URL, so it is built on first use.
type OpenAPIHandler struct {
	baseURL string
	version string

	once sync.Once
	doc  *openapi3.T
}

// NewOpenAPIHandler creates a new OpenAPIHandler. An empty baseURL makes the
// server entry follow the Host of the first request.
func NewOpenAPIHandler(baseURL, version string) *OpenAPIHandler {
	return &OpenAPIHandler{baseURL: baseURL, version: version}
}

// ServeSpec returns the OpenAPI document.
// GET /openapi.json
func (h *OpenAPIHandler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	h.once.Do(func() {
		base := h.baseURL
		if base == "" {
			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}
			base = scheme + "://" + r.Host
		}
		h.doc = openapi.Generate(base, h.version)
	})
	writeJSON(w, http.StatusOK, h.doc)
}
