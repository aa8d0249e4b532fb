package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// GetActivity fetches the current activity document.
func (c *Client) GetActivity(ctx context.Context, activityID, token string) (Activity, error) {
	var activity Activity
	path := fmt.Sprintf("/activity/%s", url.PathEscape(activityID))
	if err := c.do(ctx, "getActivity", http.MethodGet, path, token, nil, &activity); err != nil {
		return Activity{}, err
	}
	return activity, nil
}

// ApproveMembership moves userID from joinRequests to participants. The
// store is authoritative for capacity and status; a rejection here must not
// be retried.
func (c *Client) ApproveMembership(ctx context.Context, activityID, userID, token string) error {
	path := fmt.Sprintf("/activity/%s/approve/%s", url.PathEscape(activityID), url.PathEscape(userID))
	return c.do(ctx, "approveMembership", http.MethodPost, path, token, nil, nil)
}

// RejectMembership removes userID from joinRequests.
func (c *Client) RejectMembership(ctx context.Context, activityID, userID, token string) error {
	path := fmt.Sprintf("/activity/%s/reject/%s", url.PathEscape(activityID), url.PathEscape(userID))
	return c.do(ctx, "rejectMembership", http.MethodPost, path, token, nil, nil)
}

// RemoveParticipant removes userID from participants.
func (c *Client) RemoveParticipant(ctx context.Context, activityID, userID, token string) error {
	path := fmt.Sprintf("/activity/%s/remove/%s", url.PathEscape(activityID), url.PathEscape(userID))
	return c.do(ctx, "removeParticipant", http.MethodPost, path, token, nil, nil)
}

// RequestMembership adds the caller to joinRequests and returns the updated
// activity snapshot.
func (c *Client) RequestMembership(ctx context.Context, activityID, token string) (Activity, error) {
	var activity Activity
	path := fmt.Sprintf("/activity/%s/join", url.PathEscape(activityID))
	if err := c.do(ctx, "requestMembership", http.MethodPost, path, token, nil, &activity); err != nil {
		return Activity{}, err
	}
	return activity, nil
}

// CancelRequest withdraws the caller's pending join request.
func (c *Client) CancelRequest(ctx context.Context, activityID, token string) error {
	path := fmt.Sprintf("/activity/%s/cancel-request", url.PathEscape(activityID))
	return c.do(ctx, "cancelRequest", http.MethodPost, path, token, nil, nil)
}

// LeaveActivity removes the caller from participants.
func (c *Client) LeaveActivity(ctx context.Context, activityID, token string) error {
	path := fmt.Sprintf("/activity/%s/leave", url.PathEscape(activityID))
	return c.do(ctx, "leaveActivity", http.MethodPost, path, token, nil, nil)
}
