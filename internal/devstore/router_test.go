package devstore

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"teamup/internal/api"
)

func newHarness(t *testing.T) (*Store, *httptest.Server) {
	t.Helper()
	store := NewStore()
	server := httptest.NewServer(NewRouter(store, RouterConfig{}))
	t.Cleanup(server.Close)
	return store, server
}

func doReq(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestRouterRequiresBearerToken(t *testing.T) {
	_, server := newHarness(t)

	resp := doReq(t, http.MethodGet, server.URL+"/user/alerts", "", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouterJoinAndApproveFlow(t *testing.T) {
	store, server := newHarness(t)
	store.SeedActivity(api.Activity{
		ID:              "A1",
		ActivityName:    "Sunday Football",
		CreatorID:       "owner",
		MaxParticipants: 2,
	})

	// U1 requests to join; the response carries the updated snapshot.
	resp := doReq(t, http.MethodPost, server.URL+"/activity/A1/join", "U1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snapshot api.Activity
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	require.Equal(t, []string{"U1"}, snapshot.JoinRequests)

	// The owner's inbox received the join_request alert.
	resp = doReq(t, http.MethodGet, server.URL+"/user/alerts?unread_only=false&limit=50", "owner", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var alerts []api.Alert
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&alerts))
	require.Len(t, alerts, 1)
	require.Equal(t, "U1", alerts[0].SenderID)

	// The owner approves through the HTTP surface.
	resp = doReq(t, http.MethodPost, server.URL+"/activity/A1/approve/U1", "owner", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	activity, err := store.Activity("A1")
	require.NoError(t, err)
	require.Equal(t, []string{"U1"}, activity.Participants)
}

func TestRouterReportsDetailOnRejection(t *testing.T) {
	store, server := newHarness(t)
	store.SeedActivity(api.Activity{
		ID:              "A2",
		CreatorID:       "owner",
		Participants:    []string{"U3"},
		JoinRequests:    []string{"U4"},
		MaxParticipants: 1,
	})

	resp := doReq(t, http.MethodPost, server.URL+"/activity/A2/approve/U4", "owner", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "Activity is full", body["detail"])
}

func TestRouterRespondConflict(t *testing.T) {
	store, server := newHarness(t)
	store.SeedAlert("owner", api.Alert{ID: "al-1", Type: api.AlertJoinRequest})

	resp := doReq(t, http.MethodPost, server.URL+"/user/alerts/al-1/respond", "owner", `{"status":"accepted"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doReq(t, http.MethodPost, server.URL+"/user/alerts/al-1/respond", "owner", `{"status":"accepted"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, "repeat of the same status is a no-op")

	resp = doReq(t, http.MethodPost, server.URL+"/user/alerts/al-1/respond", "owner", `{"status":"rejected"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRouterInboxIsPerUser(t *testing.T) {
	store, server := newHarness(t)
	store.SeedAlert("owner", api.Alert{ID: "al-1", Type: api.AlertJoinRequest})

	// Another user cannot act on the owner's alert.
	resp := doReq(t, http.MethodPost, server.URL+"/user/alerts/al-1/read", "U1", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doReq(t, http.MethodPost, server.URL+"/user/alerts/al-1/read", "owner", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
