package www

import (
	"context"
	"testing"
	"time"
)

func receive(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		if !ok {
			t.Fatalf("send channel of %s closed", c.name)
		}
		return string(msg)
	case <-time.After(time.Second):
		t.Fatalf("%s received nothing", c.name)
		return ""
	}
}

func TestHubReplaysLatestFragment(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(quietLogger())
	go hub.Run(ctx)

	early := &Client{name: "early", send: make(chan []byte, 4)}
	hub.Register <- early
	hub.Broadcast <- []byte("v1")
	if got := receive(t, early); got != "v1" {
		t.Errorf("early client expected v1, got %q", got)
	}

	late := &Client{name: "late", send: make(chan []byte, 4)}
	hub.Register <- late
	if got := receive(t, late); got != "v1" {
		t.Errorf("late client should get the latest fragment, got %q", got)
	}

	hub.Unregister <- early
	hub.Broadcast <- []byte("v2")
	if got := receive(t, late); got != "v2" {
		t.Errorf("late client expected v2, got %q", got)
	}
	if _, ok := <-early.send; ok {
		t.Errorf("unregistered client should have its channel closed")
	}

	cancel()
	select {
	case _, ok := <-late.send:
		if ok {
			t.Errorf("unexpected message after shutdown")
		}
	case <-time.After(time.Second):
		t.Errorf("hub did not close clients on shutdown")
	}
}
