// Package correlate matches a join_request alert to an (activity, requester)
// pair. The alert store has no query-by-activity-and-sender endpoint and no
// reliable foreign key, so correlation scans the fetched list.
package correlate

import "teamup/internal/api"

// Find returns the alert representing senderID's join request for
// activityID, and whether one exists.
//
// When the list holds several matches (a user who requested, was rejected,
// then requested again), the most recent undecided alert wins; with no
// undecided match the most recent overall is returned. Acting twice on a
// decided alert is a no-op by idempotence, but acting on a stale alert would
// misreport state to the user.
func Find(alerts []api.Alert, activityID, senderID string) (api.Alert, bool) {
	var (
		bestUndecided api.Alert
		haveUndecided bool
		bestAny       api.Alert
		haveAny       bool
	)

	for _, alert := range alerts {
		if alert.Type != api.AlertJoinRequest {
			continue
		}
		if alert.SenderID != senderID || alert.ActivityID != activityID {
			continue
		}

		if !haveAny || alert.CreatedAt.After(bestAny.CreatedAt) {
			bestAny = alert
			haveAny = true
		}
		if !alert.Decided() {
			if !haveUndecided || alert.CreatedAt.After(bestUndecided.CreatedAt) {
				bestUndecided = alert
				haveUndecided = true
			}
		}
	}

	if haveUndecided {
		return bestUndecided, true
	}
	if haveAny {
		return bestAny, true
	}
	return api.Alert{}, false
}
