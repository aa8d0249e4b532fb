// Package joinflow orchestrates the join-request lifecycle: membership
// mutations against the activity store followed by best-effort alert
// synchronization. Membership is always the authoritative outcome; the alert
// record is a secondary projection that must never fail an operation that
// the membership store already accepted.
package joinflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"teamup/internal/api"
	"teamup/internal/apperrors"
	"teamup/internal/config"
	"teamup/internal/correlate"
	"teamup/internal/logging"
	"teamup/internal/projection"
)

// MembershipAPI is the slice of the resource client the orchestrator needs
// for membership mutations.
type MembershipAPI interface {
	ApproveMembership(ctx context.Context, activityID, userID, token string) error
	RejectMembership(ctx context.Context, activityID, userID, token string) error
	RemoveParticipant(ctx context.Context, activityID, userID, token string) error
	RequestMembership(ctx context.Context, activityID, token string) (api.Activity, error)
	CancelRequest(ctx context.Context, activityID, token string) error
	LeaveActivity(ctx context.Context, activityID, token string) error
}

// AlertAPI is the slice of the resource client used for alert projection
// sync.
type AlertAPI interface {
	FetchAlerts(ctx context.Context, token string, opts api.FetchAlertsOptions) ([]api.Alert, error)
	SetAlertResponseStatus(ctx context.Context, alertID, status, token string) error
	MarkAlertRead(ctx context.Context, alertID, token string) error
}

// Session identifies the acting user.
type Session struct {
	UserID string
	Token  string
}

// Outcome reports what an approve/reject accomplished. The operation error
// covers only the membership mutation; alert-sync trouble lands in SyncErr.
type Outcome struct {
	// AlertID is the correlated alert, empty on a correlation miss.
	AlertID string
	// Synced is true when the alert store reflects the decision.
	Synced bool
	// SyncErr records why the projection could not be synced. Never set on
	// a correlation miss, which is silent by contract.
	SyncErr *apperrors.ProjectionSyncError
}

var (
	// ErrInFlight means the same (activity, user) pair already has an
	// operation executing; the second tap is suppressed.
	ErrInFlight = errors.New("operation already in flight for this request")
	// ErrNotOwner means the acting user is not the activity creator. The
	// store would reject anyway; this is the client-side UX guard.
	ErrNotOwner = errors.New("only the activity owner can do this")
	// ErrConflictingDecision means the correlated alert already carries the
	// opposite terminal status, so no respond call was issued.
	ErrConflictingDecision = errors.New("alert already decided with a different status")
)

// Orchestrator sequences resource-client calls for one signed-in user.
// Distinct (activity, user) targets may run concurrently; the same target is
// serialized through the in-flight set.
type Orchestrator struct {
	membership MembershipAPI
	alerts     AlertAPI
	cache      *projection.Cache
	logger     logging.Logger
	metrics    *Metrics
	retry      apperrors.RetryConfig

	mu       sync.Mutex
	inflight map[string]struct{}
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = logging.OrNop(logger) }
}

// WithMetrics overrides the shared metrics instance (tests).
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithRetryConfig tunes the alert-fetch retry.
func WithRetryConfig(cfg apperrors.RetryConfig) Option {
	return func(o *Orchestrator) { o.retry = cfg }
}

// WithConfig applies the client configuration, so the TEAMUP_* retry
// settings take effect on the orchestrator.
func WithConfig(cfg config.Config) Option {
	return func(o *Orchestrator) { o.retry = cfg.AlertFetchRetry }
}

// WithCache attaches the optimistic projection cache the orchestrator
// updates on success.
func WithCache(cache *projection.Cache) Option {
	return func(o *Orchestrator) { o.cache = cache }
}

// New creates an Orchestrator.
func New(membership MembershipAPI, alerts AlertAPI, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		membership: membership,
		alerts:     alerts,
		logger:     logging.NewComponentLogger("joinflow"),
		metrics:    defaultMetrics(),
		retry:      apperrors.DefaultRetryConfig(),
		inflight:   map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Approve moves userID from the pending list into participants and projects
// the decision onto the owner's join_request alert.
//
// The membership call is authoritative: its failure aborts the operation and
// leaves alerts untouched. Alert fetch, correlation, respond and mark-read
// are best-effort; their failure is reported through Outcome.SyncErr, never
// as the returned error, because the participant was in fact added.
func (o *Orchestrator) Approve(ctx context.Context, sess Session, activity api.Activity, userID string) (Outcome, error) {
	return o.decide(ctx, sess, activity, userID, api.ResponseAccepted)
}

// Reject removes userID from the pending list and projects the rejection
// onto the alert. Same contract as Approve.
func (o *Orchestrator) Reject(ctx context.Context, sess Session, activity api.Activity, userID string) (Outcome, error) {
	return o.decide(ctx, sess, activity, userID, api.ResponseRejected)
}

func (o *Orchestrator) decide(ctx context.Context, sess Session, activity api.Activity, userID, status string) (Outcome, error) {
	operation := "approve"
	if status == api.ResponseRejected {
		operation = "reject"
	}

	if sess.UserID != activity.CreatorID {
		return Outcome{}, ErrNotOwner
	}

	release, err := o.acquire(activity.ID, userID)
	if err != nil {
		return Outcome{}, err
	}
	defer release()

	o.metrics.operationStarted()
	defer o.metrics.operationFinished()
	start := time.Now()

	var mutate func(context.Context, string, string, string) error
	if status == api.ResponseAccepted {
		mutate = o.membership.ApproveMembership
	} else {
		mutate = o.membership.RejectMembership
	}

	if err := mutate(ctx, activity.ID, userID, sess.Token); err != nil {
		o.metrics.observeOperation(operation, "error", time.Since(start))
		o.metrics.recordFailure(operation, failureReason(err))
		return Outcome{}, err
	}

	// Membership state is now authoritative; everything below is projection.
	if o.cache != nil {
		if status == api.ResponseAccepted {
			o.cache.ApplyApproved(activity.ID, userID)
		} else {
			o.cache.ApplyRejected(activity.ID, userID)
		}
	}

	outcome := o.syncAlert(ctx, sess, activity.ID, userID, status)
	if outcome.SyncErr != nil {
		o.metrics.recordSyncFailure(outcome.SyncErr.Stage)
		o.logger.Warn("%s %s/%s: %v", operation, activity.ID, userID, outcome.SyncErr)
	}
	if o.cache != nil && outcome.AlertID != "" && !conflicted(outcome.SyncErr) {
		// Optimistic regardless of whether the respond/read calls were
		// confirmed; the next full fetch reconciles. A conflicting terminal
		// status is the one exception: the store holds the opposite decision
		// and the projection must not show a status that will never be true.
		o.cache.ApplyAlertDecision(outcome.AlertID, status)
	}

	o.metrics.observeOperation(operation, "ok", time.Since(start))
	return outcome, nil
}

// syncAlert performs fetch → correlate → respond → mark-read. Only the
// fetch is retried (transient failures only); the mutations are single-shot
// because the store treats repeats as no-ops and the next reconcile covers a
// miss. A correlation miss returns an empty Outcome with no error.
func (o *Orchestrator) syncAlert(ctx context.Context, sess Session, activityID, userID, status string) Outcome {
	alerts, err := apperrors.RetryWithResult(ctx, o.retry, o.logger, func(ctx context.Context) ([]api.Alert, error) {
		return o.alerts.FetchAlerts(ctx, sess.Token, api.FetchAlertsOptions{})
	})
	if err != nil {
		return Outcome{SyncErr: &apperrors.ProjectionSyncError{Stage: "fetch", Err: err}}
	}

	alert, found := correlate.Find(alerts, activityID, userID)
	if !found {
		// Not an error: membership already holds the truth and the alert
		// may simply not exist (requester cancelled, inbox cleared).
		o.logger.Debug("no join_request alert for %s/%s", activityID, userID)
		return Outcome{}
	}

	if alert.Decided() && alert.ResponseStatus != status {
		// Never issue a respond call that would flip a terminal status.
		return Outcome{
			AlertID: alert.ID,
			SyncErr: &apperrors.ProjectionSyncError{
				Stage:   "respond",
				AlertID: alert.ID,
				Err:     fmt.Errorf("%w: recorded %q, attempted %q", ErrConflictingDecision, alert.ResponseStatus, status),
			},
		}
	}

	if err := o.alerts.SetAlertResponseStatus(ctx, alert.ID, status, sess.Token); err != nil {
		return Outcome{
			AlertID: alert.ID,
			SyncErr: &apperrors.ProjectionSyncError{Stage: "respond", AlertID: alert.ID, Err: err},
		}
	}
	if err := o.alerts.MarkAlertRead(ctx, alert.ID, sess.Token); err != nil {
		return Outcome{
			AlertID: alert.ID,
			SyncErr: &apperrors.ProjectionSyncError{Stage: "read", AlertID: alert.ID, Err: err},
		}
	}

	return Outcome{AlertID: alert.ID, Synced: true}
}

// Remove takes userID out of participants. There is no corresponding alert
// to update, and the cache is only touched after the store confirms: removal
// is destructive and has no alert-based recovery path, so it is never
// optimistic.
func (o *Orchestrator) Remove(ctx context.Context, sess Session, activity api.Activity, userID string) error {
	if sess.UserID != activity.CreatorID {
		return ErrNotOwner
	}

	release, err := o.acquire(activity.ID, userID)
	if err != nil {
		return err
	}
	defer release()

	o.metrics.operationStarted()
	defer o.metrics.operationFinished()
	start := time.Now()

	if err := o.membership.RemoveParticipant(ctx, activity.ID, userID, sess.Token); err != nil {
		o.metrics.observeOperation("remove", "error", time.Since(start))
		o.metrics.recordFailure("remove", failureReason(err))
		return err
	}

	if o.cache != nil {
		o.cache.ConfirmRemoved(activity.ID, userID)
	}
	o.metrics.observeOperation("remove", "ok", time.Since(start))
	return nil
}

// RequestJoin asks to join an activity. The join_request alert for the owner
// is created server-side as part of this mutation; the requester sees only
// the returned snapshot, which already lists them in joinRequests.
func (o *Orchestrator) RequestJoin(ctx context.Context, sess Session, activityID string) (api.Activity, error) {
	release, err := o.acquire(activityID, sess.UserID)
	if err != nil {
		return api.Activity{}, err
	}
	defer release()

	o.metrics.operationStarted()
	defer o.metrics.operationFinished()
	start := time.Now()

	activity, err := o.membership.RequestMembership(ctx, activityID, sess.Token)
	if err != nil {
		o.metrics.observeOperation("request_join", "error", time.Since(start))
		o.metrics.recordFailure("request_join", failureReason(err))
		return api.Activity{}, err
	}

	if o.cache != nil {
		o.cache.ReconcileActivity(activity)
	}
	o.metrics.observeOperation("request_join", "ok", time.Since(start))
	return activity, nil
}

// CancelRequest withdraws the caller's own pending join request.
func (o *Orchestrator) CancelRequest(ctx context.Context, sess Session, activityID string) error {
	release, err := o.acquire(activityID, sess.UserID)
	if err != nil {
		return err
	}
	defer release()

	o.metrics.operationStarted()
	defer o.metrics.operationFinished()
	start := time.Now()

	if err := o.membership.CancelRequest(ctx, activityID, sess.Token); err != nil {
		o.metrics.observeOperation("cancel_request", "error", time.Since(start))
		o.metrics.recordFailure("cancel_request", failureReason(err))
		return err
	}

	if o.cache != nil {
		o.cache.ApplyCancelled(activityID, sess.UserID)
	}
	o.metrics.observeOperation("cancel_request", "ok", time.Since(start))
	return nil
}

// Leave removes the caller from an activity they participate in.
func (o *Orchestrator) Leave(ctx context.Context, sess Session, activityID string) error {
	release, err := o.acquire(activityID, sess.UserID)
	if err != nil {
		return err
	}
	defer release()

	o.metrics.operationStarted()
	defer o.metrics.operationFinished()
	start := time.Now()

	if err := o.membership.LeaveActivity(ctx, activityID, sess.Token); err != nil {
		o.metrics.observeOperation("leave", "error", time.Since(start))
		o.metrics.recordFailure("leave", failureReason(err))
		return err
	}

	if o.cache != nil {
		o.cache.ConfirmRemoved(activityID, sess.UserID)
	}
	o.metrics.observeOperation("leave", "ok", time.Since(start))
	return nil
}

// acquire claims the in-flight slot for one (activity, user) target. The
// returned release must be called exactly once.
func (o *Orchestrator) acquire(activityID, userID string) (func(), error) {
	key := activityID + "/" + userID
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inflight[key]; busy {
		return nil, ErrInFlight
	}
	o.inflight[key] = struct{}{}
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.inflight, key)
	}, nil
}

// InFlight reports whether an operation for the target is executing; screens
// use this to disable action buttons.
func (o *Orchestrator) InFlight(activityID, userID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, busy := o.inflight[activityID+"/"+userID]
	return busy
}

func conflicted(syncErr *apperrors.ProjectionSyncError) bool {
	return syncErr != nil && errors.Is(syncErr, ErrConflictingDecision)
}

func failureReason(err error) string {
	switch {
	case apperrors.IsAuthoritative(err):
		return "authoritative"
	case apperrors.IsTransient(err):
		return "transient"
	default:
		return "other"
	}
}
