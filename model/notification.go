package model

import "time"

// Notification types emitted by the backend.
const (
	NotificationTypeEvent        = "event"
	NotificationTypeSociety      = "society"
	NotificationTypePost         = "post"
	NotificationTypeComment      = "comment"
	NotificationTypeLike         = "like"
	NotificationTypeJoinRequest  = "join_request"
	NotificationTypeJoinApproved = "join_approved"
	NotificationTypeJoinRejected = "join_rejected"
	NotificationTypeNewEvent     = "new_event"
)

/*

Notification is one entry of the user's notification list, newest first.
Read is monotonic on the client: once flipped to true it never reverts.

Id: primary key, also the de-duplication key for stream frames
Type: one of the NotificationType constants
Title: short heading
Message: body text
Read: whether the user has seen this notification
CreatedAt: time when the notification was generated
Data: optional structured payload, e.g. related post or society id

*/

type Notification struct {
	Id        string            `json:"id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
	Data      map[string]string `json:"data,omitempty"`
}

// TypeLabel renders the notification type for display. Unknown types fall
// back to the raw value so the client never hides forward-compatible types.
func (n Notification) TypeLabel() string {
	switch n.Type {
	case NotificationTypeEvent, NotificationTypeNewEvent:
		return "event"
	case NotificationTypeSociety:
		return "society"
	case NotificationTypePost:
		return "post"
	case NotificationTypeComment:
		return "comment"
	case NotificationTypeLike:
		return "like"
	case NotificationTypeJoinRequest:
		return "join request"
	case NotificationTypeJoinApproved:
		return "join approved"
	case NotificationTypeJoinRejected:
		return "join rejected"
	default:
		return n.Type
	}
}
