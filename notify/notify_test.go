package notify

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPusher struct {
	mu       sync.Mutex
	payloads map[string][][]byte
	fail     bool
}

func (p *recordingPusher) Push(userID string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("user offline")
	}
	if p.payloads == nil {
		p.payloads = make(map[string][][]byte)
	}
	p.payloads[userID] = append(p.payloads[userID], payload)
	return nil
}

func TestPushLiveDeliversPayload(t *testing.T) {
	pusher := &recordingPusher{}
	svc := NewService(pusher)

	svc.PushLive("buyer1", "your order was accepted", "item_accepted")

	require.Len(t, pusher.payloads["buyer1"], 1)

	var got map[string]string
	require.NoError(t, json.Unmarshal(pusher.payloads["buyer1"][0], &got))
	assert.Equal(t, "your order was accepted", got["message"])
	assert.Equal(t, "item_accepted", got["type"])
}

// A failing live push must be swallowed: the push is best effort and only
// the inbox record is guaranteed.
func TestPushLiveFailureDoesNotPanicOrPropagate(t *testing.T) {
	svc := NewService(&recordingPusher{fail: true})

	assert.NotPanics(t, func() {
		svc.PushLive("buyer1", "hello", "order_placed")
	})
}

func TestPushLiveNilPusher(t *testing.T) {
	svc := NewService(nil)

	assert.NotPanics(t, func() {
		svc.PushLive("buyer1", "hello", "order_placed")
	})
}
