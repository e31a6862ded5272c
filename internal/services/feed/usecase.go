// Package feed owns post, comment and reaction creation. Posting is
// gated by the quota engine; each write kicks off a best-effort fan-out.
package feed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/crewnow/crewnow/internal/domain/comment"
	"github.com/crewnow/crewnow/internal/domain/notify"
	"github.com/crewnow/crewnow/internal/domain/post"
	"github.com/crewnow/crewnow/internal/domain/reaction"
	"github.com/crewnow/crewnow/internal/domain/user"
	"github.com/crewnow/crewnow/internal/obs"
)

// ErrQuotaExhausted is returned when the author has no posts left in the
// current window.
var ErrQuotaExhausted = errors.New("posting quota exhausted")

// ErrPostNotFound is returned when a comment or reaction targets a post
// that does not exist.
var ErrPostNotFound = errors.New("post not found")

type Quota interface {
	PostsRemaining(ctx context.Context, userID int64) (int, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, ev notify.Event) (int, error)
}

type Usecase struct {
	Posts     post.Repo
	Comments  comment.Repo
	Reactions reaction.Repo
	Users     user.Repo
	Quota     Quota
	Fanout    Dispatcher
	Log       *zap.Logger

	// NotFound is the store's missing-row sentinel; matching it turns a
	// bad post reference into ErrPostNotFound instead of a server error.
	NotFound error
}

// CreatePost stores the post if the author still has quota. The quota
// check and the insert are not atomic; with the small caps involved a
// racing double-submit at the boundary is acceptable.
func (u *Usecase) CreatePost(ctx context.Context, p *post.Post) error {
	remaining, err := u.Quota.PostsRemaining(ctx, p.AuthorID)
	if err != nil {
		return fmt.Errorf("quota: %w", err)
	}
	if remaining <= 0 {
		return ErrQuotaExhausted
	}

	if err := u.Posts.Create(ctx, p); err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	u.dispatch(ctx, notify.Event{
		Kind:         notify.NewPost,
		PostID:       p.ID,
		PostAuthorID: p.AuthorID,
		ActorID:      p.AuthorID,
		ActorName:    u.actorName(ctx, p.AuthorID),
	})
	return nil
}

func (u *Usecase) CreateComment(ctx context.Context, c *comment.Comment) error {
	parent, err := u.loadParent(ctx, c.PostID)
	if err != nil {
		return err
	}

	if err := u.Comments.Create(ctx, c); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}

	u.dispatch(ctx, notify.Event{
		Kind:         notify.CommentCreated,
		PostID:       parent.ID,
		PostAuthorID: parent.AuthorID,
		ActorID:      c.AuthorID,
		ActorName:    u.actorName(ctx, c.AuthorID),
	})
	return nil
}

func (u *Usecase) CreateReaction(ctx context.Context, r *reaction.Reaction) error {
	parent, err := u.loadParent(ctx, r.PostID)
	if err != nil {
		return err
	}

	if err := u.Reactions.Create(ctx, r); err != nil {
		return fmt.Errorf("create reaction: %w", err)
	}

	u.dispatch(ctx, notify.Event{
		Kind:         notify.ReactionCreated,
		PostID:       parent.ID,
		PostAuthorID: parent.AuthorID,
		ActorID:      r.UserID,
		ActorName:    u.actorName(ctx, r.UserID),
	})
	return nil
}

func (u *Usecase) loadParent(ctx context.Context, postID int64) (*post.Post, error) {
	parent, err := u.Posts.GetByID(ctx, postID)
	if err != nil {
		if u.NotFound != nil && errors.Is(err, u.NotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("load post: %w", err)
	}
	return parent, nil
}

// dispatch fans the event out; failures never surface to the writer.
func (u *Usecase) dispatch(ctx context.Context, ev notify.Event) {
	if u.Fanout == nil {
		return
	}
	if _, err := u.Fanout.Dispatch(ctx, ev); err != nil {
		obs.WithTrace(ctx, u.Log).Warn("fan-out failed",
			zap.String("event", string(ev.Kind)),
			zap.Error(err),
		)
	}
}

func (u *Usecase) actorName(ctx context.Context, id int64) string {
	usr, err := u.Users.GetByID(ctx, id)
	if err != nil {
		u.Log.Warn("actor lookup failed", zap.Int64("user_id", id), zap.Error(err))
		return "Jemand"
	}
	return usr.Name
}
