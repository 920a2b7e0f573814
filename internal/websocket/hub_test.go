package websocket

import (
	"context"
	"testing"
	"time"

	"AlertIntelAPI/internal/logger"

	"github.com/stretchr/testify/assert"
)

func newTestLogger() *logger.Logger {
	log, _ := logger.New(logger.Config{Level: logger.FATAL, Mode: logger.MINIMAL})
	return log
}

func TestHub_RegisteredClientReceivesBroadcast(t *testing.T) {
	hub := NewHub(newTestLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := &Client{hub: hub, send: make(chan Message, 1)}
	hub.register <- client

	hub.Broadcast(MessageAlert, map[string]string{"id": "a-1"})

	select {
	case msg := <-client.send:
		assert.Equal(t, MessageAlert, msg.Type)
	case <-time.After(time.Second):
		t.Fatal("registered client never received the broadcast")
	}
}

func TestHub_BroadcastWithoutRunningHubDoesNotBlock(t *testing.T) {
	hub := NewHub(newTestLogger())

	// Queue capacity plus more; every call must return immediately.
	for i := 0; i < 100; i++ {
		hub.Broadcast(MessageNotification, i)
	}
}
