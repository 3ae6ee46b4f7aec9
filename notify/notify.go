// Package notify fans a state-machine transition out to interested users.
// Every notification gets a durable inbox record; the live push is a
// best-effort extra whose failure never reaches the caller.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"agrolink/db"
	"agrolink/logger"
	"agrolink/models"
	"agrolink/utils"
)

// LivePusher delivers a payload to a user's live channel. Implementations
// must be safe for concurrent use; errors are logged and dropped.
type LivePusher interface {
	Push(userID string, payload []byte) error
}

type Service struct {
	pusher LivePusher
}

func NewService(pusher LivePusher) *Service {
	return &Service{pusher: pusher}
}

// WriteInbox writes the durable inbox record through ctx, joining the
// caller's transaction when ctx is a session context. Callers inside a
// transaction fire the live push themselves after commit, since the
// transaction closure may be retried.
func (s *Service) WriteInbox(ctx context.Context, userID, message, ntype string) error {
	n := models.Notification{
		NotifID:   utils.GetUUID(),
		UserID:    userID,
		Message:   message,
		Type:      ntype,
		CreatedAt: time.Now(),
	}

	_, err := db.NotificationsCollection.InsertOne(ctx, n)
	return err
}

// Notify is the one-shot form: durable inbox write, then one best-effort
// live push.
func (s *Service) Notify(ctx context.Context, userID, message, ntype string) error {
	if err := s.WriteInbox(ctx, userID, message, ntype); err != nil {
		return err
	}
	s.PushLive(userID, message, ntype)
	return nil
}

// PushLive attempts the best-effort live delivery on its own, outside any
// transaction. Used after commit for events whose inbox record was written
// earlier in the transaction.
func (s *Service) PushLive(userID, message, ntype string) {
	if s.pusher == nil {
		return
	}
	payload, err := json.Marshal(utils.M{"message": message, "type": ntype})
	if err != nil {
		return
	}
	if err := s.pusher.Push(userID, payload); err != nil {
		logger.Warn("live push failed", "user", userID, "type", ntype, "err", err)
	}
}
