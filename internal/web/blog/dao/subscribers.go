package dao

import (
	"context"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/Laisky/envo-blog/internal/web/blog/model"
	"github.com/Laisky/envo-blog/library/db/docstore"
)

// ListSubscribers loads the subscribers matching q.
func (d *Blog) ListSubscribers(ctx context.Context, q docstore.Query) ([]*model.Subscriber, error) {
	docs, err := d.SubscribersCol().List(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "list subscribers")
	}

	subs := make([]*model.Subscriber, 0, len(docs))
	for _, doc := range docs {
		sub := &model.Subscriber{ID: doc.ID()}
		if err = doc.DataTo(&sub.Subscription); err != nil {
			d.logger.Warn("skip malformed subscriber", zap.String("id", doc.ID()), zap.Error(err))
			continue
		}

		subs = append(subs, sub)
	}

	return subs, nil
}

// InsertSubscriber stores sub unless its email is already subscribed,
// in which case it returns model.ErrDuplicateEmail.
func (d *Blog) InsertSubscriber(ctx context.Context, sub *model.Subscription) (string, error) {
	id, err := d.SubscribersCol().InsertUnique(ctx, "email", sub.Email, sub)
	if err != nil {
		if errors.Is(err, docstore.ErrDuplicate) {
			return "", errors.WithStack(model.ErrDuplicateEmail)
		}
		return "", errors.Wrap(err, "insert subscriber")
	}

	return id, nil
}

// RemoveSubscriber deletes the subscriber without checking that it exists.
func (d *Blog) RemoveSubscriber(ctx context.Context, id string) error {
	return errors.Wrapf(d.SubscribersCol().Remove(ctx, id), "remove subscriber %q", id)
}
