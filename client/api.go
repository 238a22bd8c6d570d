package client

import (
	"context"
	"net/http"
	"strconv"

	"github.com/campuside/society-client/model"
)

// Typed wrappers over the REST endpoints the SDK consumes. Each one goes
// through do(), so token injection, timeout and failure alerts apply
// uniformly.

// LoginResult is the auth endpoint payload.
type LoginResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out LoginResult
	query := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodGet, "/auth/login", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*LoginResult, error) {
	var out LoginResult
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUserInfo(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodGet, "/users/get_user_info", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type boolResult struct {
	Result bool `json:"result"`
}

func (c *Client) CheckMembership(ctx context.Context, societyID string) (bool, error) {
	var out boolResult
	query := map[string]string{"society_id": societyID}
	if err := c.do(ctx, http.MethodGet, "/societies/check_membership", query, nil, &out); err != nil {
		return false, err
	}
	return out.Result, nil
}

func (c *Client) CheckAdmin(ctx context.Context, societyID string) (bool, error) {
	var out boolResult
	query := map[string]string{"society_id": societyID}
	if err := c.do(ctx, http.MethodGet, "/societies/check_admin", query, nil, &out); err != nil {
		return false, err
	}
	return out.Result, nil
}

func (c *Client) RequestJoinSociety(ctx context.Context, societyID string) error {
	body := map[string]string{"society_id": societyID}
	return c.do(ctx, http.MethodPost, "/societies/join_society_request", nil, body, nil)
}

func (c *Client) CheckJoinRequest(ctx context.Context, societyID string) (bool, error) {
	var out boolResult
	query := map[string]string{"society_id": societyID}
	if err := c.do(ctx, http.MethodGet, "/societies/join_requests/check", query, nil, &out); err != nil {
		return false, err
	}
	return out.Result, nil
}

func (c *Client) ListSocieties(ctx context.Context, limit int) ([]model.Society, error) {
	var out []model.Society
	query := map[string]string{}
	if limit > 0 {
		query["limit"] = strconv.Itoa(limit)
	}
	if err := c.do(ctx, http.MethodGet, "/societies", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetSociety(ctx context.Context, societyID string) (*model.Society, error) {
	var out model.Society
	query := map[string]string{"society_id": societyID}
	if err := c.do(ctx, http.MethodGet, "/societies/get", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListEvents(ctx context.Context, societyID string) ([]model.Event, error) {
	var out []model.Event
	query := map[string]string{"society_id": societyID}
	if err := c.do(ctx, http.MethodGet, "/events", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	var out []model.Notification
	if err := c.do(ctx, http.MethodGet, "/notifications", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, notificationID string) error {
	body := map[string]string{"notification_id": notificationID}
	return c.do(ctx, http.MethodPost, "/notifications/mark-read", nil, body, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/notifications/mark-all-read", nil, nil, nil)
}

func (c *Client) LikePost(ctx context.Context, postID string) error {
	body := map[string]string{"post_id": postID}
	return c.do(ctx, http.MethodPost, "/posts/like_post", nil, body, nil)
}

func (c *Client) UnlikePost(ctx context.Context, postID string) error {
	body := map[string]string{"post_id": postID}
	return c.do(ctx, http.MethodPost, "/posts/unlike_post", nil, body, nil)
}

func (c *Client) CreateComment(ctx context.Context, postID, content string) (*model.Comment, error) {
	var out model.Comment
	body := map[string]string{"post_id": postID, "content": content}
	if err := c.do(ctx, http.MethodPost, "/comment/create_comment", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePost(ctx context.Context, postID string) error {
	body := map[string]string{"post_id": postID}
	return c.do(ctx, http.MethodPost, "/posts/delete_post", nil, body, nil)
}

func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	body := map[string]string{"comment_id": commentID}
	return c.do(ctx, http.MethodPost, "/comment/delete_comment", nil, body, nil)
}
