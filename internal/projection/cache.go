// Package projection holds the screen-visible copies of alerts and
// activities. Optimistic deltas mutate immediately; server truth arriving
// through a reconcile always wins. There is no push-based invalidation, so a
// stale entry survives until the next full fetch.
package projection

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"teamup/internal/api"
	"teamup/internal/config"
	"teamup/internal/logging"
)

const (
	defaultMaxActivities = 256
	defaultTTL           = 5 * time.Minute
)

// State tags an entry as locally mutated or server-confirmed. Pending
// entries make the staleness window auditable: anything Pending has not been
// seen back from a store yet.
type State int

const (
	StateConfirmed State = iota
	StatePending
)

func (s State) String() string {
	if s == StatePending {
		return "pending"
	}
	return "confirmed"
}

// AlertEntry is one alert plus its projection state.
type AlertEntry struct {
	Alert api.Alert
	State State
}

// ActivityEntry is one activity snapshot plus its projection state.
type ActivityEntry struct {
	Activity api.Activity
	State    State
}

type activityRecord struct {
	entry    ActivityEntry
	storedAt time.Time
}

// Config tunes the cache bounds.
type Config struct {
	MaxActivities int
	TTL           time.Duration
}

// Cache is the optimistic projection for one signed-in user. Safe for
// concurrent use.
type Cache struct {
	mu         sync.RWMutex
	alerts     []AlertEntry
	alertIndex map[string]int
	activities *lru.Cache[string, activityRecord]
	ttl        time.Duration
	logger     logging.Logger
}

// New creates a Cache. Zero config values fall back to defaults.
func New(cfg Config, logger logging.Logger) *Cache {
	if cfg.MaxActivities <= 0 {
		cfg.MaxActivities = defaultMaxActivities
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	activities, err := lru.New[string, activityRecord](cfg.MaxActivities)
	if err != nil {
		// lru.New only errors on non-positive size which we guard above.
		activities, _ = lru.New[string, activityRecord](defaultMaxActivities)
	}
	return &Cache{
		alertIndex: map[string]int{},
		activities: activities,
		ttl:        cfg.TTL,
		logger:     logging.OrNop(logger),
	}
}

// NewFromConfig creates a Cache sized by the client configuration, so the
// TEAMUP_CACHE_SIZE and TEAMUP_CACHE_TTL settings take effect.
func NewFromConfig(cfg config.Config, logger logging.Logger) *Cache {
	return New(Config{MaxActivities: cfg.CacheMaxSize, TTL: cfg.CacheTTL}, logger)
}

// ---------------------------------------------------------------------------
// alerts
// ---------------------------------------------------------------------------

// ReconcileAlerts replaces the alert projection with server truth. Always
// wins over pending entries; this is the system's only reconciliation path.
func (c *Cache) ReconcileAlerts(alerts []api.Alert) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = make([]AlertEntry, len(alerts))
	c.alertIndex = make(map[string]int, len(alerts))
	for i, alert := range alerts {
		c.alerts[i] = AlertEntry{Alert: alert, State: StateConfirmed}
		c.alertIndex[alert.ID] = i
	}
}

// Alerts returns a copy of the projected alert list in store order.
func (c *Cache) Alerts() []AlertEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]AlertEntry, len(c.alerts))
	copy(out, c.alerts)
	return out
}

// UnreadCount counts projected unread alerts.
func (c *Cache) UnreadCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	count := 0
	for _, entry := range c.alerts {
		if !entry.Alert.Read {
			count++
		}
	}
	return count
}

// ApplyAlertDecision optimistically marks an alert read with a terminal
// response status. Unknown IDs are a no-op: a completion handler may land
// after the screen refetched and dropped the alert.
func (c *Cache) ApplyAlertDecision(alertID, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.alertIndex[alertID]
	if !ok {
		c.logger.Debug("decision for unknown alert %s ignored", alertID)
		return
	}
	c.alerts[i].Alert.Read = true
	c.alerts[i].Alert.ResponseStatus = status
	c.alerts[i].State = StatePending
}

// ApplyAlertRead optimistically marks an alert read.
func (c *Cache) ApplyAlertRead(alertID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.alertIndex[alertID]
	if !ok {
		return
	}
	c.alerts[i].Alert.Read = true
	c.alerts[i].State = StatePending
}

// DropAlert removes an alert from the projection (optimistic delete).
func (c *Cache) DropAlert(alertID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.alertIndex[alertID]
	if !ok {
		return
	}
	c.alerts = append(c.alerts[:i], c.alerts[i+1:]...)
	delete(c.alertIndex, alertID)
	for j := i; j < len(c.alerts); j++ {
		c.alertIndex[c.alerts[j].Alert.ID] = j
	}
}

// ClearAlerts empties the alert projection (optimistic delete-all).
func (c *Cache) ClearAlerts() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = nil
	c.alertIndex = map[string]int{}
}

// ---------------------------------------------------------------------------
// activities
// ---------------------------------------------------------------------------

// ReconcileActivity stores a server-confirmed activity snapshot.
func (c *Cache) ReconcileActivity(activity api.Activity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putActivity(activity, StateConfirmed)
}

// Activity returns the projected snapshot when present and not expired.
func (c *Cache) Activity(activityID string) (ActivityEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	record, ok := c.activities.Get(activityID)
	if !ok {
		return ActivityEntry{}, false
	}
	if time.Since(record.storedAt) >= c.ttl {
		// Expired; evict so the LRU bookkeeping stays clean.
		c.activities.Remove(activityID)
		return ActivityEntry{}, false
	}
	entry := record.entry
	entry.Activity.Participants = cloneIDs(entry.Activity.Participants)
	entry.Activity.JoinRequests = cloneIDs(entry.Activity.JoinRequests)
	return entry, true
}

// ApplyJoinRequested optimistically adds userID to the pending list.
func (c *Cache) ApplyJoinRequested(activityID, userID string) {
	c.mutateActivity(activityID, func(a *api.Activity) {
		if !a.HasJoinRequest(userID) && !a.HasParticipant(userID) {
			a.JoinRequests = append(a.JoinRequests, userID)
		}
	})
}

// ApplyApproved optimistically moves userID from joinRequests to
// participants.
func (c *Cache) ApplyApproved(activityID, userID string) {
	c.mutateActivity(activityID, func(a *api.Activity) {
		a.JoinRequests = without(a.JoinRequests, userID)
		if !a.HasParticipant(userID) {
			a.Participants = append(a.Participants, userID)
		}
	})
}

// ApplyRejected optimistically drops userID from joinRequests.
func (c *Cache) ApplyRejected(activityID, userID string) {
	c.mutateActivity(activityID, func(a *api.Activity) {
		a.JoinRequests = without(a.JoinRequests, userID)
	})
}

// ApplyCancelled optimistically withdraws the caller's pending request.
func (c *Cache) ApplyCancelled(activityID, userID string) {
	c.ApplyRejected(activityID, userID)
}

// ConfirmRemoved drops userID from participants after the store confirmed
// the removal. Removal is destructive with no alert-based recovery path, so
// it is never applied optimistically.
func (c *Cache) ConfirmRemoved(activityID, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	record, ok := c.activities.Get(activityID)
	if !ok {
		return
	}
	record.entry.Activity.Participants = without(record.entry.Activity.Participants, userID)
	record.entry.State = StateConfirmed
	record.storedAt = time.Now()
	c.activities.Add(activityID, record)
}

func (c *Cache) mutateActivity(activityID string, mutate func(*api.Activity)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	record, ok := c.activities.Get(activityID)
	if !ok {
		c.logger.Debug("delta for unknown activity %s ignored", activityID)
		return
	}
	mutate(&record.entry.Activity)
	record.entry.State = StatePending
	c.activities.Add(activityID, record)
}

func (c *Cache) putActivity(activity api.Activity, state State) {
	// Detach the stored snapshot from the caller's slices so later deltas
	// never write through to a screen's copy.
	activity.Participants = cloneIDs(activity.Participants)
	activity.JoinRequests = cloneIDs(activity.JoinRequests)
	c.activities.Add(activity.ID, activityRecord{
		entry:    ActivityEntry{Activity: activity, State: state},
		storedAt: time.Now(),
	})
}

func cloneIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
