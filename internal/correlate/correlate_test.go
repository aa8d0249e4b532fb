package correlate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"teamup/internal/api"
)

func at(minutes int) time.Time {
	return time.Date(2025, 3, 1, 12, minutes, 0, 0, time.UTC)
}

func joinAlert(id, activityID, senderID, status string, created time.Time) api.Alert {
	return api.Alert{
		ID:             id,
		Type:           api.AlertJoinRequest,
		ActivityID:     activityID,
		SenderID:       senderID,
		ResponseStatus: status,
		CreatedAt:      created,
	}
}

func TestFindMatchesTypeSenderAndActivity(t *testing.T) {
	alerts := []api.Alert{
		{ID: "msg", Type: api.AlertNewMessage, ActivityID: "A1", SenderID: "U1", CreatedAt: at(5)},
		joinAlert("other-activity", "A2", "U1", "", at(4)),
		joinAlert("other-sender", "A1", "U9", "", at(3)),
		joinAlert("match", "A1", "U1", "", at(1)),
	}

	alert, found := Find(alerts, "A1", "U1")
	require.True(t, found)
	require.Equal(t, "match", alert.ID)
}

func TestFindPrefersUndecidedOverDecided(t *testing.T) {
	// One undecided created later, one rejected created earlier: the
	// undecided one wins regardless of list order.
	alerts := []api.Alert{
		joinAlert("decided", "A1", "U1", api.ResponseRejected, at(0)),
		joinAlert("undecided", "A1", "U1", "", at(10)),
	}

	alert, found := Find(alerts, "A1", "U1")
	require.True(t, found)
	require.Equal(t, "undecided", alert.ID)

	// Same result with the undecided one listed first.
	alert, found = Find([]api.Alert{alerts[1], alerts[0]}, "A1", "U1")
	require.True(t, found)
	require.Equal(t, "undecided", alert.ID)
}

func TestFindPrefersUndecidedEvenWhenOlder(t *testing.T) {
	alerts := []api.Alert{
		joinAlert("decided-new", "A1", "U1", api.ResponseAccepted, at(20)),
		joinAlert("undecided-old", "A1", "U1", "", at(1)),
	}

	alert, found := Find(alerts, "A1", "U1")
	require.True(t, found)
	require.Equal(t, "undecided-old", alert.ID)
}

func TestFindMostRecentUndecidedAmongSeveral(t *testing.T) {
	alerts := []api.Alert{
		joinAlert("old", "A1", "U1", "", at(1)),
		joinAlert("new", "A1", "U1", "", at(9)),
		joinAlert("mid", "A1", "U1", "", at(5)),
	}

	alert, found := Find(alerts, "A1", "U1")
	require.True(t, found)
	require.Equal(t, "new", alert.ID)
}

func TestFindFallsBackToMostRecentDecided(t *testing.T) {
	alerts := []api.Alert{
		joinAlert("first", "A1", "U1", api.ResponseRejected, at(1)),
		joinAlert("second", "A1", "U1", api.ResponseAccepted, at(8)),
	}

	alert, found := Find(alerts, "A1", "U1")
	require.True(t, found)
	require.Equal(t, "second", alert.ID)
}

func TestFindNoMatch(t *testing.T) {
	alerts := []api.Alert{
		joinAlert("a", "A1", "U1", "", at(1)),
	}

	_, found := Find(alerts, "A1", "U2")
	require.False(t, found)

	_, found = Find(nil, "A1", "U1")
	require.False(t, found)
}
