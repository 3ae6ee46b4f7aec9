// Package orders implements the multi-party order lifecycle: atomic order
// creation with inventory reservation, per-line-item accept/decline by each
// farmer, role-gated order status transitions, and the online payment leg.
// Every mutation runs inside one mongo transaction scoped to a single order.
package orders

import (
	"context"

	"agrolink/db"
	"agrolink/notify"

	"go.mongodb.org/mongo-driver/mongo"
)

type Service struct {
	notifier *notify.Service
}

func NewService(notifier *notify.Service) *Service {
	return &Service{notifier: notifier}
}

// pendingPush is a live push deferred until after the surrounding
// transaction commits; the transaction closure may be retried, so nothing
// user-visible leaves it early. The inbox record is written inside the
// transaction, the push is not.
type pendingPush struct {
	userID  string
	message string
	ntype   string
}

func (s *Service) withTxn(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := db.Client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (s *Service) firePushes(pushes []pendingPush) {
	for _, p := range pushes {
		s.notifier.PushLive(p.userID, p.message, p.ntype)
	}
}
