package notify

import "agrolink/rdx"

// RedisPusher publishes live notifications on a per-user redis channel.
// Frontends (or a socket gateway) subscribe to notify:<userid>.
type RedisPusher struct{}

func (RedisPusher) Push(userID string, payload []byte) error {
	return rdx.RdxPublish("notify:"+userID, payload)
}
