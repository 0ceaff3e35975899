package tools

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ThinkArcHQ/profilebase/internal/profiles"
	"github.com/ThinkArcHQ/profilebase/internal/tools"
)

func TestSchemaHandler(t *testing.T) {
	reg := tools.NewRegistry(profiles.NewMemoryStore(), tools.Options{AllowFileWrite: true, AllowProfiles: true})
	h := SchemaHandler{Registry: reg}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tools", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var all []schemaView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &all))
	require.Len(t, all, 7)
	require.Equal(t, "object", all[0].Parameters["type"])

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tools?group="+tools.GroupProfiles, nil))
	var profileOnly []schemaView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profileOnly))
	require.Len(t, profileOnly, 3)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/tools", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
