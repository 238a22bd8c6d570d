package model

import "time"

/*

Society is a user-created community that members join. It is the primary
organizational unit of the platform.

Id: primary key, use to identify a society
Name: display name, unique on the backend
Description: free-form description text
Category: backend-defined category label
CreatorId: id of the user who created the society
MembersCount: denormalized member count maintained by the backend
CreatedAt: time when the society was created

*/

type Society struct {
	Id           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	CreatorId    string    `json:"creator_id"`
	MembersCount int       `json:"members_count"`
	CreatedAt    time.Time `json:"created_at"`
}

/*

Event is a scheduled activity hosted by a society.

Id: primary key
SocietyId: owning society
Title: event title
Description: free-form description text
Location: human readable venue
StartsAt: scheduled start time
EndsAt: scheduled end time

*/

type Event struct {
	Id          string    `json:"id"`
	SocietyId   string    `json:"society_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
}

// Role is the unified role of the current user within one society.
type Role string

const (
	RoleNone      Role = ""
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

/*

Membership is the cached membership state of the current user against one
society. IsMember and IsAdmin mirror the two backend checks; Role is derived
from them so call sites get one uniform shape.

*/

type Membership struct {
	IsMember bool `json:"is_member"`
	IsAdmin  bool `json:"is_admin"`
	Role     Role `json:"role"`
}

// DeriveRole computes the unified role from the two backend check results.
func DeriveRole(isMember, isAdmin bool) Role {
	switch {
	case isAdmin:
		return RoleAdmin
	case isMember:
		return RoleMember
	default:
		return RoleNone
	}
}
