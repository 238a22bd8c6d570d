package model

/*

User is the identity record for an authenticated platform account.

Id: primary key, use to identify a user
Name: display name of the user, can be changed
Email: account email, unique on the backend
AvatarUrl: user's icon URL
IsModerator: platform-wide moderator flag
IsSiteAdmin: platform-wide administrator flag

*/

type User struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	AvatarUrl   string `json:"avatar_url"`
	IsModerator bool   `json:"is_moderator"`
	IsSiteAdmin bool   `json:"is_site_admin"`
}
