package tools

import (
	"encoding/json"
	"net/http"

	"github.com/ThinkArcHQ/profilebase/internal/tools"
)

// SchemaHandler serves the enabled tool schemas as JSON. ?group= narrows the
// list to one tool group.
type SchemaHandler struct {
	Registry *tools.Registry
}

type schemaView struct {
	Name        string                 `json:"name"`
	Group       string                 `json:"group"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// ServeHTTP renders schemas.
func (h SchemaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	group := r.URL.Query().Get("group")
	out := make([]schemaView, 0)
	for _, s := range h.Registry.Schemas() {
		if group != "" && s.Group != group {
			continue
		}
		out = append(out, schemaView{
			Name:        s.Name,
			Group:       s.Group,
			Description: s.Description,
			Parameters:  s.JSONSchema(),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
