package api

import "time"

// ActivityStatus values the membership store reports.
const (
	ActivityAvailable = "available"
	ActivityFull      = "full"
	ActivityCancelled = "cancelled"
	ActivityExpired   = "expired"
)

// Location is a point on the map where an activity takes place.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Activity mirrors the membership store's activity document. The core only
// mutates participants/joinRequests through dedicated endpoints; the rest is
// carried for display.
type Activity struct {
	ID              string   `json:"id"`
	ActivityName    string   `json:"activityName"`
	BannerImageURL  string   `json:"bannerImageUrl,omitempty"`
	Type            string   `json:"type"`
	Price           float64  `json:"price"`
	Sport           string   `json:"sport"`
	SkillLevel      string   `json:"skillLevel"`
	Description     string   `json:"description"`
	CreatorID       string   `json:"creator_id"`
	Location        Location `json:"location"`
	DateTime        string   `json:"dateTime"`
	Participants    []string `json:"participants"`
	JoinRequests    []string `json:"joinRequests"`
	MaxParticipants int      `json:"maxParticipants"`
	Status          string   `json:"status"`
}

// HasParticipant reports whether userID is in the participant set.
func (a Activity) HasParticipant(userID string) bool {
	return contains(a.Participants, userID)
}

// HasJoinRequest reports whether userID has a pending request.
func (a Activity) HasJoinRequest(userID string) bool {
	return contains(a.JoinRequests, userID)
}

// AtCapacity reports whether the participant set is full.
func (a Activity) AtCapacity() bool {
	return a.MaxParticipants > 0 && len(a.Participants) >= a.MaxParticipants
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Alert types the alert store produces. Only join_request alerts are acted
// on; the rest are display-only.
const (
	AlertJoinRequest       = "join_request"
	AlertRequestApproved   = "request_approved"
	AlertRequestRejected   = "request_rejected"
	AlertUserLeft          = "user_left"
	AlertActivityCancelled = "activity_cancelled"
	AlertActivityUpdated   = "activity_updated"
	AlertNewMessage        = "new_message"
)

// Terminal response statuses for a join_request alert. An empty
// ResponseStatus means undecided.
const (
	ResponseAccepted = "accepted"
	ResponseRejected = "rejected"
)

// Alert is one record in a user's notification inbox.
type Alert struct {
	ID               string         `json:"id"`
	UserID           string         `json:"user_id"`
	Type             string         `json:"type"`
	Message          string         `json:"message"`
	ActivityID       string         `json:"activity_id,omitempty"`
	ActivityName     string         `json:"activity_name,omitempty"`
	SenderID         string         `json:"sender_id,omitempty"`
	SenderName       string         `json:"sender_name,omitempty"`
	SenderProfilePic string         `json:"sender_profile_pic,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	Read             bool           `json:"read"`
	ResponseStatus   string         `json:"response_status,omitempty"`
	Data             map[string]any `json:"data,omitempty"`
}

// Decided reports whether a terminal response status has been recorded.
// An alert never transitions back from decided to undecided.
func (a Alert) Decided() bool {
	return a.ResponseStatus != ""
}
