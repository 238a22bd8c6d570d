package membership

import (
	"context"
	"sync"

	"github.com/campuside/society-client/client"
	"github.com/campuside/society-client/model"
	Logger "github.com/campuside/society-client/utils/log"
)

var (
	Log = Logger.LogV2
)

// inflightCall is shared by all concurrent requesters of one uncached
// society id. The first caller performs the fetch, everyone waits on done
// and observes the identical resolved value.
type inflightCall struct {
	done chan struct{}
	val  model.Membership
	err  error
}

// Cache is the per-society membership lookup for the current user. It is
// owned by the session lifetime: construct a fresh cache at login/logout so
// a different user can never observe the previous user's cached flags.
//
// Entries live for the cache's lifetime with no TTL; the only invalidation
// path is an explicit per-key mutation, never a blanket clear.
type Cache struct {
	mu       sync.Mutex
	api      *client.Client
	entries  map[string]model.Membership
	inflight map[string]*inflightCall
	// pending tracks join-request state separately from membership. Only a
	// true result is recorded; once pending, never re-fetched.
	pending map[string]bool
}

func NewCache(api *client.Client) *Cache {
	return &Cache{
		api:      api,
		entries:  map[string]model.Membership{},
		inflight: map[string]*inflightCall{},
		pending:  map[string]bool{},
	}
}

// Get returns the membership record for a society, fetching at most once per
// id for the cache's lifetime. Concurrent callers for the same uncached id
// share a single combined fetch.
func (c *Cache) Get(ctx context.Context, societyID string) (model.Membership, error) {
	c.mu.Lock()
	if entry, ok := c.entries[societyID]; ok {
		c.mu.Unlock()
		return entry, nil
	}
	if call, ok := c.inflight[societyID]; ok {
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.val, call.err
		case <-ctx.Done():
			return model.Membership{}, ctx.Err()
		}
	}
	call := &inflightCall{done: make(chan struct{})}
	c.inflight[societyID] = call
	c.mu.Unlock()

	call.val, call.err = c.fetch(ctx, societyID)

	c.mu.Lock()
	// A cancelled fetch proves nothing about membership; leave the entry
	// unwritten so the next caller refetches.
	if call.err == nil {
		c.entries[societyID] = call.val
	}
	delete(c.inflight, societyID)
	c.mu.Unlock()
	close(call.done)

	return call.val, call.err
}

// fetch issues the membership and admin checks concurrently and combines
// them. A genuine check failure resolves fail-closed so repeated server
// failures do not retrigger a fetch on every lookup; a cancelled context
// returns the error instead so nothing is cached.
func (c *Cache) fetch(ctx context.Context, societyID string) (model.Membership, error) {
	var (
		wg       sync.WaitGroup
		isMember bool
		isAdmin  bool
		mErr     error
		aErr     error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		isMember, mErr = c.api.CheckMembership(ctx, societyID)
	}()
	go func() {
		defer wg.Done()
		isAdmin, aErr = c.api.CheckAdmin(ctx, societyID)
	}()
	wg.Wait()

	if ctx.Err() != nil {
		return model.Membership{}, ctx.Err()
	}
	if mErr != nil || aErr != nil {
		Log.Infof("membership fetch failed for society ", societyID, ", caching fail-closed")
		return model.Membership{IsMember: false, IsAdmin: false, Role: model.RoleNone}, nil
	}
	return model.Membership{
		IsMember: isMember,
		IsAdmin:  isAdmin,
		Role:     model.DeriveRole(isMember, isAdmin),
	}, nil
}

// JoinPending reports whether the current user has a pending join request
// for the society. A true result is sticky and never re-fetched; a false
// result is re-checked on the next call.
func (c *Cache) JoinPending(ctx context.Context, societyID string) (bool, error) {
	c.mu.Lock()
	if c.pending[societyID] {
		c.mu.Unlock()
		return true, nil
	}
	c.mu.Unlock()

	pending, err := c.api.CheckJoinRequest(ctx, societyID)
	if err != nil {
		return false, err
	}
	if pending {
		c.mu.Lock()
		c.pending[societyID] = true
		c.mu.Unlock()
	}
	return pending, nil
}

// RequestJoin submits a join request. On HTTP success the pending flag flips
// immediately; membership itself is untouched, approval is a separate
// backend workflow.
func (c *Cache) RequestJoin(ctx context.Context, societyID string) error {
	if err := c.api.RequestJoinSociety(ctx, societyID); err != nil {
		return err
	}
	c.mu.Lock()
	c.pending[societyID] = true
	c.mu.Unlock()
	return nil
}

// Invalidate drops a single cached entry, used after a role change performed
// elsewhere. The next Get re-fetches that society only.
func (c *Cache) Invalidate(societyID string) {
	c.mu.Lock()
	delete(c.entries, societyID)
	c.mu.Unlock()
}
