package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// FetchAlertsOptions narrows the alert-list fetch.
type FetchAlertsOptions struct {
	UnreadOnly bool
	Limit      int // 0 means the store default (50)
}

// FetchAlerts returns the caller's alert inbox, newest first as the store
// orders it.
func (c *Client) FetchAlerts(ctx context.Context, token string, opts FetchAlertsOptions) ([]Alert, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	query := url.Values{}
	query.Set("unread_only", strconv.FormatBool(opts.UnreadOnly))
	query.Set("limit", strconv.Itoa(limit))

	var alerts []Alert
	if err := c.do(ctx, "fetchAlerts", http.MethodGet, "/user/alerts?"+query.Encode(), token, nil, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// UnreadCount returns the number of unread alerts in the caller's inbox.
func (c *Client) UnreadCount(ctx context.Context, token string) (int, error) {
	var out struct {
		UnreadCount int `json:"unread_count"`
	}
	if err := c.do(ctx, "unreadCount", http.MethodGet, "/user/alerts/count", token, nil, &out); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}

// SetAlertResponseStatus records the terminal decision on a join_request
// alert. The store treats a repeat of the same status as a no-op; setting a
// conflicting status is a logic error the orchestrator avoids issuing.
func (c *Client) SetAlertResponseStatus(ctx context.Context, alertID, status, token string) error {
	if status != ResponseAccepted && status != ResponseRejected {
		return fmt.Errorf("setAlertResponseStatus: invalid status %q", status)
	}
	body := struct {
		Status string `json:"status"`
	}{Status: status}
	path := fmt.Sprintf("/user/alerts/%s/respond", url.PathEscape(alertID))
	return c.do(ctx, "setAlertResponseStatus", http.MethodPost, path, token, body, nil)
}

// MarkAlertRead marks one alert as read. Idempotent.
func (c *Client) MarkAlertRead(ctx context.Context, alertID, token string) error {
	path := fmt.Sprintf("/user/alerts/%s/read", url.PathEscape(alertID))
	return c.do(ctx, "markAlertRead", http.MethodPost, path, token, nil, nil)
}

// MarkAllAlertsRead marks the caller's whole inbox as read.
func (c *Client) MarkAllAlertsRead(ctx context.Context, token string) error {
	return c.do(ctx, "markAllAlertsRead", http.MethodPost, "/user/alerts/read-all", token, nil, nil)
}

// DeleteAlert removes one alert from the caller's inbox.
func (c *Client) DeleteAlert(ctx context.Context, alertID, token string) error {
	path := fmt.Sprintf("/user/alerts/%s", url.PathEscape(alertID))
	return c.do(ctx, "deleteAlert", http.MethodDelete, path, token, nil, nil)
}

// DeleteAllAlerts clears the caller's inbox.
func (c *Client) DeleteAllAlerts(ctx context.Context, token string) error {
	return c.do(ctx, "deleteAllAlerts", http.MethodDelete, "/user/alerts", token, nil, nil)
}
