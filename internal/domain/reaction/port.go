package reaction

import "context"

type Repo interface {
	Create(ctx context.Context, r *Reaction) error
}
