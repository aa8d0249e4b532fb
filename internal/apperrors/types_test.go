package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromStatusClassification(t *testing.T) {
	cases := []struct {
		status    int
		transient bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusForbidden, false},
		{http.StatusNotFound, false},
		{http.StatusConflict, false},
		{http.StatusRequestTimeout, true},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
	}
	for _, tc := range cases {
		err := FromStatus("op", tc.status, "")
		require.Equal(t, tc.transient, IsTransient(err), "status %d", tc.status)
		require.Equal(t, !tc.transient, IsAuthoritative(err), "status %d", tc.status)
	}
}

func TestAuthoritativeUserMessage(t *testing.T) {
	withDetail := &AuthoritativeError{Op: "approveMembership", StatusCode: 400, Detail: "Activity is full"}
	require.Equal(t, "Activity is full", withDetail.UserMessage())

	noDetail := &AuthoritativeError{Op: "approveMembership", StatusCode: 403}
	require.Contains(t, noDetail.UserMessage(), "could not be completed")
}

func TestFromTransportIsTransient(t *testing.T) {
	err := FromTransport("fetchAlerts", errors.New("connection refused"))
	require.True(t, IsTransient(err))
	require.False(t, IsAuthoritative(err))
}

func TestProjectionSyncErrorWrapping(t *testing.T) {
	inner := errors.New("boom")
	err := &ProjectionSyncError{Stage: "respond", AlertID: "a1", Err: inner}
	require.True(t, IsProjectionSync(err))
	require.ErrorIs(t, err, inner)
	require.Contains(t, err.Error(), "respond")
	require.Contains(t, err.Error(), "a1")

	wrapped := fmt.Errorf("outer: %w", err)
	require.True(t, IsProjectionSync(wrapped))
}

func TestRetryStopsOnAuthoritative(t *testing.T) {
	calls := 0
	_, err := RetryWithResult(context.Background(), DefaultRetryConfig(), nil, func(context.Context) (int, error) {
		calls++
		return 0, &AuthoritativeError{Op: "approveMembership", StatusCode: 400, Detail: "full"}
	})
	require.True(t, IsAuthoritative(err))
	require.Equal(t, 1, calls)
}

func TestRetryRecoversFromTransient(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	calls := 0
	result, err := RetryWithResult(context.Background(), cfg, nil, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &TransientError{Op: "fetchAlerts", Err: errors.New("503")}
		}
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", result)
	require.Equal(t, 3, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	calls := 0
	_, err := RetryWithResult(context.Background(), cfg, nil, func(context.Context) (int, error) {
		calls++
		return 0, &TransientError{Op: "fetchAlerts", Err: errors.New("timeout")}
	})
	require.Error(t, err)
	require.Equal(t, 2, calls)
	require.Contains(t, err.Error(), "max retries exceeded")
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	_, err := RetryWithResult(ctx, DefaultRetryConfig(), nil, func(context.Context) (int, error) {
		calls++
		return 0, nil
	})
	require.Error(t, err)
	require.Equal(t, 0, calls)
}
