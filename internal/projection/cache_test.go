package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"teamup/internal/api"
	"teamup/internal/config"
)

func seedAlerts() []api.Alert {
	return []api.Alert{
		{ID: "al-1", Type: api.AlertJoinRequest, SenderID: "U1", ActivityID: "A1"},
		{ID: "al-2", Type: api.AlertNewMessage, Read: true},
	}
}

func TestApplyAlertDecisionMarksPending(t *testing.T) {
	cache := New(Config{}, nil)
	cache.ReconcileAlerts(seedAlerts())

	cache.ApplyAlertDecision("al-1", api.ResponseAccepted)

	entries := cache.Alerts()
	require.Equal(t, StatePending, entries[0].State)
	require.True(t, entries[0].Alert.Read)
	require.Equal(t, api.ResponseAccepted, entries[0].Alert.ResponseStatus)
	require.Equal(t, StateConfirmed, entries[1].State)
	require.Equal(t, 0, cache.UnreadCount())
}

func TestReconcileAlwaysWins(t *testing.T) {
	cache := New(Config{}, nil)
	cache.ReconcileAlerts(seedAlerts())
	cache.ApplyAlertDecision("al-1", api.ResponseAccepted)

	// Server truth says the alert is still undecided (e.g. the respond call
	// never landed). The reconcile overwrites the optimistic entry.
	cache.ReconcileAlerts([]api.Alert{
		{ID: "al-1", Type: api.AlertJoinRequest, SenderID: "U1", ActivityID: "A1"},
	})

	entries := cache.Alerts()
	require.Len(t, entries, 1)
	require.Equal(t, StateConfirmed, entries[0].State)
	require.False(t, entries[0].Alert.Read)
	require.Empty(t, entries[0].Alert.ResponseStatus)
}

func TestUnknownIDsAreNoOps(t *testing.T) {
	cache := New(Config{}, nil)
	cache.ReconcileAlerts(seedAlerts())

	// A completion handler firing after the screen moved on must not panic
	// or mutate anything.
	cache.ApplyAlertDecision("gone", api.ResponseRejected)
	cache.ApplyAlertRead("gone")
	cache.DropAlert("gone")
	cache.ApplyApproved("no-such-activity", "U1")
	cache.ConfirmRemoved("no-such-activity", "U1")

	require.Len(t, cache.Alerts(), 2)
}

func TestDropAndClearAlerts(t *testing.T) {
	cache := New(Config{}, nil)
	cache.ReconcileAlerts(seedAlerts())

	cache.DropAlert("al-1")
	entries := cache.Alerts()
	require.Len(t, entries, 1)
	require.Equal(t, "al-2", entries[0].Alert.ID)

	cache.ClearAlerts()
	require.Empty(t, cache.Alerts())
}

func activityA1() api.Activity {
	return api.Activity{
		ID:              "A1",
		CreatorID:       "owner",
		Participants:    []string{},
		JoinRequests:    []string{"U1", "U2"},
		MaxParticipants: 2,
		Status:          api.ActivityAvailable,
	}
}

func TestApplyApprovedMovesUserBetweenSets(t *testing.T) {
	cache := New(Config{}, nil)
	cache.ReconcileActivity(activityA1())

	cache.ApplyApproved("A1", "U1")

	entry, ok := cache.Activity("A1")
	require.True(t, ok)
	require.Equal(t, StatePending, entry.State)
	require.Equal(t, []string{"U1"}, entry.Activity.Participants)
	require.Equal(t, []string{"U2"}, entry.Activity.JoinRequests)

	// Applying again must not duplicate the participant.
	cache.ApplyApproved("A1", "U1")
	entry, _ = cache.Activity("A1")
	require.Equal(t, []string{"U1"}, entry.Activity.Participants)
}

func TestApplyRejectedAndJoinRequested(t *testing.T) {
	cache := New(Config{}, nil)
	cache.ReconcileActivity(activityA1())

	cache.ApplyRejected("A1", "U2")
	entry, _ := cache.Activity("A1")
	require.Equal(t, []string{"U1"}, entry.Activity.JoinRequests)

	cache.ApplyJoinRequested("A1", "U3")
	entry, _ = cache.Activity("A1")
	require.Equal(t, []string{"U1", "U3"}, entry.Activity.JoinRequests)

	// Already-requested and already-participating users are not re-added.
	cache.ApplyJoinRequested("A1", "U3")
	cache.ApplyApproved("A1", "U3")
	cache.ApplyJoinRequested("A1", "U3")
	entry, _ = cache.Activity("A1")
	require.Equal(t, []string{"U1"}, entry.Activity.JoinRequests)
	require.Equal(t, []string{"U3"}, entry.Activity.Participants)
}

func TestConfirmRemovedIsConfirmedState(t *testing.T) {
	cache := New(Config{}, nil)
	activity := activityA1()
	activity.Participants = []string{"U5"}
	cache.ReconcileActivity(activity)

	cache.ConfirmRemoved("A1", "U5")

	entry, ok := cache.Activity("A1")
	require.True(t, ok)
	require.Equal(t, StateConfirmed, entry.State)
	require.Empty(t, entry.Activity.Participants)
}

func TestReconcileActivityOverwritesPending(t *testing.T) {
	cache := New(Config{}, nil)
	cache.ReconcileActivity(activityA1())
	cache.ApplyApproved("A1", "U1")

	fresh := activityA1() // server still shows U1 pending
	cache.ReconcileActivity(fresh)

	entry, _ := cache.Activity("A1")
	require.Equal(t, StateConfirmed, entry.State)
	require.Empty(t, entry.Activity.Participants)
	require.Equal(t, []string{"U1", "U2"}, entry.Activity.JoinRequests)
}

func TestActivityTTLExpiry(t *testing.T) {
	cache := New(Config{TTL: time.Millisecond}, nil)
	cache.ReconcileActivity(activityA1())

	time.Sleep(5 * time.Millisecond)

	_, ok := cache.Activity("A1")
	require.False(t, ok)
}

func TestActivityLRUBound(t *testing.T) {
	cache := New(Config{MaxActivities: 2}, nil)
	cache.ReconcileActivity(api.Activity{ID: "A1"})
	cache.ReconcileActivity(api.Activity{ID: "A2"})
	cache.ReconcileActivity(api.Activity{ID: "A3"})

	_, ok := cache.Activity("A1")
	require.False(t, ok)
	_, ok = cache.Activity("A3")
	require.True(t, ok)
}

func TestNewFromConfigAppliesBounds(t *testing.T) {
	cfg, err := config.Load(config.WithEnvLookup(func(key string) (string, bool) {
		switch key {
		case "TEAMUP_CACHE_SIZE":
			return "1", true
		case "TEAMUP_CACHE_TTL":
			return "1ms", true
		}
		return "", false
	}))
	require.NoError(t, err)

	cache := NewFromConfig(cfg, nil)
	cache.ReconcileActivity(api.Activity{ID: "A1"})
	cache.ReconcileActivity(api.Activity{ID: "A2"})

	_, ok := cache.Activity("A1")
	require.False(t, ok, "size 1 keeps only the newest snapshot")

	time.Sleep(5 * time.Millisecond)
	_, ok = cache.Activity("A2")
	require.False(t, ok, "configured TTL expires the survivor")
}
