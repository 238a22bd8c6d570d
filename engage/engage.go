package engage

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/campuside/society-client/client"
	"github.com/campuside/society-client/model"
	Logger "github.com/campuside/society-client/utils/log"
)

var (
	Log = Logger.LogV2
)

const tempCommentPrefix = "tmp-"

// likeSnapshot holds the pre-toggle values restored exactly on rollback.
type likeSnapshot struct {
	IsLiked    bool
	LikesCount int
}

// Manager is the optimistic interaction layer for posts: like/unlike and
// comment creation mutate the post immediately and roll back on failure;
// deletes are not optimistic and wait for server confirmation.
//
// Each like toggle captures a per-post generation so a slow stale completion
// can never clobber a newer optimistic state.
type Manager struct {
	mu       sync.Mutex
	api      *client.Client
	likeGen  map[string]uint64
	deleting map[string]bool
}

func NewManager(api *client.Client) *Manager {
	return &Manager{
		api:      api,
		likeGen:  map[string]uint64{},
		deleting: map[string]bool{},
	}
}

// ToggleLike flips the like state and adjusts the count by exactly one
// before the network call resolves. On failure both values revert to their
// pre-toggle snapshot, provided no newer toggle has superseded this one.
// The silent revert is the failure signal; no toast beyond the wrapper's.
func (m *Manager) ToggleLike(ctx context.Context, post *model.Post) error {
	m.mu.Lock()
	gen := m.likeGen[post.Id] + 1
	m.likeGen[post.Id] = gen

	var snap likeSnapshot
	if err := copier.Copy(&snap, post); err != nil {
		m.mu.Unlock()
		return err
	}

	liked := !post.IsLiked
	post.IsLiked = liked
	if liked {
		post.LikesCount++
	} else {
		post.LikesCount--
	}
	m.mu.Unlock()

	var err error
	if liked {
		err = m.api.LikePost(ctx, post.Id)
	} else {
		err = m.api.UnlikePost(ctx, post.Id)
	}
	if err == nil {
		return nil
	}

	m.mu.Lock()
	if m.likeGen[post.Id] == gen {
		post.IsLiked = snap.IsLiked
		post.LikesCount = snap.LikesCount
	} else {
		Log.Debugf("skipping like rollback for post ", post.Id, ": superseded by a newer toggle")
	}
	m.mu.Unlock()
	return err
}

// AddComment appends an unconfirmed comment with a client-generated
// temporary id, then issues the create call. On failure the temporary entry
// is removed by id; on success it stays as-is, displayed from client-known
// content.
func (m *Manager) AddComment(ctx context.Context, post *model.Post, content, authorLabel string) (string, error) {
	temp := model.Comment{
		Id:         tempCommentPrefix + uuid.New().String(),
		PostId:     post.Id,
		AuthorName: authorLabel,
		Content:    content,
		CreatedAt:  time.Now(),
	}

	m.mu.Lock()
	post.Comments = append(post.Comments, temp)
	m.mu.Unlock()

	if _, err := m.api.CreateComment(ctx, post.Id, content); err != nil {
		m.mu.Lock()
		post.Comments = removeComment(post.Comments, temp.Id)
		m.mu.Unlock()
		return "", err
	}
	return temp.Id, nil
}

// IsTempComment reports whether a comment id is a client-generated
// placeholder awaiting no reconciliation.
func IsTempComment(id string) bool {
	return strings.HasPrefix(id, tempCommentPrefix)
}

// DeleteComment removes a comment only after the server confirms. The
// deleting flag drives the loading state on the confirming control.
func (m *Manager) DeleteComment(ctx context.Context, post *model.Post, commentID string) error {
	m.setDeleting(commentID, true)
	defer m.setDeleting(commentID, false)

	if err := m.api.DeleteComment(ctx, commentID); err != nil {
		return err
	}

	m.mu.Lock()
	post.Comments = removeComment(post.Comments, commentID)
	m.mu.Unlock()
	return nil
}

// DeletePost confirms with the server before the caller drops the post from
// its lists.
func (m *Manager) DeletePost(ctx context.Context, postID string) error {
	m.setDeleting(postID, true)
	defer m.setDeleting(postID, false)
	return m.api.DeletePost(ctx, postID)
}

// IsDeleting reports whether a delete call is in flight for the given id.
func (m *Manager) IsDeleting(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleting[id]
}

func (m *Manager) setDeleting(id string, v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v {
		m.deleting[id] = true
	} else {
		delete(m.deleting, id)
	}
}

func removeComment(comments []model.Comment, id string) []model.Comment {
	out := comments[:0]
	for _, c := range comments {
		if c.Id != id {
			out = append(out, c)
		}
	}
	return out
}
