package mqtt

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnconnectedClient(t *testing.T) {
	m := &Client{}
	assert.Equal(t, 0, m.SessionID())
	assert.Equal(t, ErrNotConnected, m.Publish("topic", 0, false, "x"))
	assert.Equal(t, ErrNotConnected, m.Subscribe("topic/#", func(string, string) {}))
}

// The session ID, connection handle and closed flag are shared with the
// reconnect goroutine; hammer them from several goroutines so the race
// detector can verify the guard.
func TestStateAccessIsGuarded(t *testing.T) {
	m := &Client{}
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.SessionID()
				m.Publish("topic", 0, false, "x")
				m.Close()
			}
		}()
	}
	wg.Wait()
	assert.NoError(t, m.Close())
}
