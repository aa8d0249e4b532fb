// Package devstore is an in-memory reference implementation of the
// membership and alert store contracts the client core depends on. It backs
// integration tests and the local dev harness; it is not a production
// server.
package devstore

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"teamup/internal/api"
)

// Error is a store rejection carried to the HTTP layer.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Detail)
}

func reject(status int, format string, args ...any) *Error {
	return &Error{Status: status, Detail: fmt.Sprintf(format, args...)}
}

// Store holds all state behind one mutex. Volume never warrants anything
// finer-grained in a test harness.
type Store struct {
	mu         sync.Mutex
	activities map[string]*api.Activity
	inboxes    map[string][]*api.Alert
	nextAlert  int
	now        func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		activities: map[string]*api.Activity{},
		inboxes:    map[string][]*api.Alert{},
		now:        time.Now,
	}
}

// SetClock substitutes the time source (tests).
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now != nil {
		s.now = now
	}
}

// SeedActivity installs an activity document.
func (s *Store) SeedActivity(activity api.Activity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := activity
	copied.Participants = append([]string(nil), activity.Participants...)
	copied.JoinRequests = append([]string(nil), activity.JoinRequests...)
	if copied.Status == "" {
		copied.Status = api.ActivityAvailable
	}
	s.activities[copied.ID] = &copied
}

// SeedAlert installs an alert in a user's inbox.
func (s *Store) SeedAlert(userID string, alert api.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if alert.ID == "" {
		s.nextAlert++
		alert.ID = fmt.Sprintf("alert-%d", s.nextAlert)
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = s.now()
	}
	alert.UserID = userID
	copied := alert
	s.inboxes[userID] = append(s.inboxes[userID], &copied)
}

// Activity returns a snapshot of an activity document.
func (s *Store) Activity(activityID string) (api.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	activity, err := s.find(activityID)
	if err != nil {
		return api.Activity{}, err
	}
	return snapshot(activity), nil
}

func (s *Store) find(activityID string) (*api.Activity, error) {
	activity, ok := s.activities[activityID]
	if !ok {
		return nil, reject(http.StatusNotFound, "Activity not found")
	}
	return activity, nil
}

func snapshot(activity *api.Activity) api.Activity {
	copied := *activity
	copied.Participants = append([]string(nil), activity.Participants...)
	copied.JoinRequests = append([]string(nil), activity.JoinRequests...)
	return copied
}

// RequestJoin adds userID to the pending list and drops a join_request
// alert into the creator's inbox, the way the production store does as part
// of the same mutation.
func (s *Store) RequestJoin(activityID, userID string) (api.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	activity, err := s.find(activityID)
	if err != nil {
		return api.Activity{}, err
	}
	if activity.Status != api.ActivityAvailable {
		return api.Activity{}, reject(http.StatusBadRequest, "Activity is not accepting requests")
	}
	if activity.HasParticipant(userID) {
		return api.Activity{}, reject(http.StatusBadRequest, "Already a participant")
	}
	if activity.HasJoinRequest(userID) {
		return api.Activity{}, reject(http.StatusBadRequest, "Join request already sent")
	}
	if activity.AtCapacity() {
		return api.Activity{}, reject(http.StatusBadRequest, "Activity is full")
	}

	activity.JoinRequests = append(activity.JoinRequests, userID)

	s.nextAlert++
	s.inboxes[activity.CreatorID] = append(s.inboxes[activity.CreatorID], &api.Alert{
		ID:           fmt.Sprintf("alert-%d", s.nextAlert),
		UserID:       activity.CreatorID,
		Type:         api.AlertJoinRequest,
		Message:      fmt.Sprintf("%s wants to join %s", userID, activity.ActivityName),
		ActivityID:   activity.ID,
		ActivityName: activity.ActivityName,
		SenderID:     userID,
		CreatedAt:    s.now(),
	})

	return snapshot(activity), nil
}

// Approve moves userID from joinRequests to participants. Approving a user
// who is already a participant, or whose request is gone, is benign: the
// client assumes store-side idempotence for the double-tap race.
func (s *Store) Approve(activityID, actorID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	activity, err := s.find(activityID)
	if err != nil {
		return err
	}
	if activity.CreatorID != actorID {
		return reject(http.StatusForbidden, "Only the activity creator can approve requests")
	}
	if activity.HasParticipant(userID) {
		return nil
	}
	if activity.Status != api.ActivityAvailable {
		return reject(http.StatusBadRequest, "Activity is not accepting requests")
	}
	if activity.AtCapacity() {
		return reject(http.StatusBadRequest, "Activity is full")
	}
	if !activity.HasJoinRequest(userID) {
		return nil
	}

	activity.JoinRequests = remove(activity.JoinRequests, userID)
	activity.Participants = append(activity.Participants, userID)
	if activity.AtCapacity() {
		activity.Status = api.ActivityFull
	}
	return nil
}

// Reject removes userID from joinRequests. Idempotent.
func (s *Store) Reject(activityID, actorID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	activity, err := s.find(activityID)
	if err != nil {
		return err
	}
	if activity.CreatorID != actorID {
		return reject(http.StatusForbidden, "Only the activity creator can reject requests")
	}
	activity.JoinRequests = remove(activity.JoinRequests, userID)
	return nil
}

// Remove takes userID out of participants. Idempotent.
func (s *Store) Remove(activityID, actorID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	activity, err := s.find(activityID)
	if err != nil {
		return err
	}
	if activity.CreatorID != actorID {
		return reject(http.StatusForbidden, "Only the activity creator can remove participants")
	}
	s.dropParticipant(activity, userID)
	return nil
}

// CancelRequest withdraws the caller's own pending request.
func (s *Store) CancelRequest(activityID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	activity, err := s.find(activityID)
	if err != nil {
		return err
	}
	if !activity.HasJoinRequest(userID) {
		return reject(http.StatusBadRequest, "No pending join request")
	}
	activity.JoinRequests = remove(activity.JoinRequests, userID)
	return nil
}

// Leave removes the caller from participants.
func (s *Store) Leave(activityID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	activity, err := s.find(activityID)
	if err != nil {
		return err
	}
	if !activity.HasParticipant(userID) {
		return reject(http.StatusBadRequest, "Not a participant")
	}
	s.dropParticipant(activity, userID)
	return nil
}

func (s *Store) dropParticipant(activity *api.Activity, userID string) {
	before := len(activity.Participants)
	activity.Participants = remove(activity.Participants, userID)
	if len(activity.Participants) < before &&
		activity.Status == api.ActivityFull && !activity.AtCapacity() {
		activity.Status = api.ActivityAvailable
	}
}

// Alerts returns the caller's inbox, newest first.
func (s *Store) Alerts(userID string, unreadOnly bool, limit int) []api.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	inbox := s.inboxes[userID]
	out := make([]api.Alert, 0, len(inbox))
	for i := len(inbox) - 1; i >= 0; i-- {
		alert := inbox[i]
		if unreadOnly && alert.Read {
			continue
		}
		out = append(out, *alert)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// UnreadCount counts the caller's unread alerts.
func (s *Store) UnreadCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, alert := range s.inboxes[userID] {
		if !alert.Read {
			count++
		}
	}
	return count
}

// Respond records the terminal decision on an alert. Repeating the recorded
// status is a no-op; a conflicting status is rejected with 409 and changes
// nothing.
func (s *Store) Respond(userID, alertID, status string) error {
	if status != api.ResponseAccepted && status != api.ResponseRejected {
		return reject(http.StatusBadRequest, "Invalid response status")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	alert, err := s.findAlert(userID, alertID)
	if err != nil {
		return err
	}
	switch alert.ResponseStatus {
	case "":
		alert.ResponseStatus = status
		return nil
	case status:
		return nil
	default:
		return reject(http.StatusConflict, "Alert already has a response status")
	}
}

// MarkRead marks one alert read. Idempotent.
func (s *Store) MarkRead(userID, alertID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	alert, err := s.findAlert(userID, alertID)
	if err != nil {
		return err
	}
	alert.Read = true
	return nil
}

// MarkAllRead marks the whole inbox read.
func (s *Store) MarkAllRead(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, alert := range s.inboxes[userID] {
		alert.Read = true
	}
}

// DeleteAlert removes one alert from the caller's inbox.
func (s *Store) DeleteAlert(userID, alertID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inbox := s.inboxes[userID]
	for i, alert := range inbox {
		if alert.ID == alertID {
			s.inboxes[userID] = append(inbox[:i], inbox[i+1:]...)
			return nil
		}
	}
	return reject(http.StatusNotFound, "Alert not found")
}

// DeleteAllAlerts clears the caller's inbox.
func (s *Store) DeleteAllAlerts(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inboxes, userID)
}

func (s *Store) findAlert(userID, alertID string) (*api.Alert, error) {
	for _, alert := range s.inboxes[userID] {
		if alert.ID == alertID {
			return alert, nil
		}
	}
	return nil, reject(http.StatusNotFound, "Alert not found")
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
