package model

import "time"

/*

Post is a timeline entry inside a society. IsLiked and LikesCount are the
current user's view of the like state; both are mutated together by the
optimistic interaction layer and must always move in lockstep.

Id: primary key
SocietyId: owning society
AuthorId: id of the posting user
AuthorName: display name of the posting user
Content: post body
ImageUrls: attached image URLs
IsLiked: whether the current user has liked this post
LikesCount: total like count as last known
Comments: comments attached to this post, oldest first
CreatedAt: time when the post was created

*/

type Post struct {
	Id         string    `json:"id"`
	SocietyId  string    `json:"society_id"`
	AuthorId   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	ImageUrls  []string  `json:"image_urls"`
	IsLiked    bool      `json:"is_liked"`
	LikesCount int       `json:"likes_count"`
	Comments   []Comment `json:"comments"`
	CreatedAt  time.Time `json:"created_at"`
}

/*

Comment is a reply attached to a post. Comments created optimistically carry
a client-generated temporary id until the create call settles.

*/

type Comment struct {
	Id         string    `json:"id"`
	PostId     string    `json:"post_id"`
	AuthorId   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
