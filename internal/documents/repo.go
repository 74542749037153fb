package documents

import "context"

// Repo stores at most one document per session.
type Repo interface {
	Put(ctx context.Context, doc Document) error
	Current(ctx context.Context, sessionID string) (Document, error)
	Delete(ctx context.Context, sessionID string) error
}
