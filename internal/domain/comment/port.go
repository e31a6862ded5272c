package comment

import "context"

type Repo interface {
	Create(ctx context.Context, c *Comment) error
	// CommenterIDs returns the distinct authors of comments on a post.
	CommenterIDs(ctx context.Context, postID int64) ([]int64, error)
}
