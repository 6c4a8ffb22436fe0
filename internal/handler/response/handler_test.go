package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haiintel/dashboard/internal/model/chat"
	"github.com/haiintel/dashboard/internal/model/response"
)

func TestListResponses(t *testing.T) {
	table := response.MustDefault()
	r := chi.NewRouter()
	New(table).RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/responses", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	var got []chat.Response
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, table.List(), got)
	assert.Equal(t, "what is haiintel", got[0].Prompt)
}
