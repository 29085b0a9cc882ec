package inbox

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Leitan123/SmartScholarsPAF/backendtest"
	"github.com/Leitan123/SmartScholarsPAF/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInbox(t *testing.T) {
	srv := backendtest.New()
	srv.Start()
	defer srv.Close()
	ctx := context.Background()

	me := srv.AddUser("ada", "ada@example.com")
	bob := srv.AddUser("bob", "bob@example.com")
	post := srv.AddPost(me.Id, "hello")
	srv.Notify(me.Id, "welcome")

	bobClient := srv.Client(srv.SignIn(bob))
	_, err := bobClient.CreateComment(ctx, post.Id, "hi ada")
	require.NoError(t, err)
	require.NoError(t, bobClient.Follow(ctx, me.Id))

	toasts := &notify.Recorder{}
	h := NewHolder(srv.Client(srv.SignIn(me)), toasts, nil)
	defer h.Close()
	require.NoError(t, h.Load(ctx))

	list := h.Notifications()
	require.Len(t, list, 3)
	assert.Equal(t, "bob requested to follow you", list[0].Message)
	assert.Equal(t, "bob commented on your post", list[1].Message)
	assert.Equal(t, "welcome", list[2].Message)
	assert.Equal(t, 3, h.Unread())

	require.NoError(t, h.MarkAllRead(ctx))
	assert.Equal(t, 0, h.Unread())
	assert.Len(t, h.Notifications(), 3)

	srv.FailNext(http.MethodPut, "/api/notifications/mark-read", http.StatusInternalServerError, "")
	require.Error(t, h.MarkAllRead(ctx))
	assert.Equal(t, "Failed to mark notifications as read", toasts.Last().Message)
}

func TestCloseCancelsLoad(t *testing.T) {
	srv := backendtest.New()
	srv.Start()
	defer srv.Close()
	ctx := context.Background()

	me := srv.AddUser("ada", "ada@example.com")
	srv.Notify(me.Id, "welcome")
	srv.SetLatency("/api/notifications", time.Second)

	toasts := &notify.Recorder{}
	h := NewHolder(srv.Client(srv.SignIn(me)), toasts, nil)
	done := make(chan error, 1)
	go func() {
		done <- h.Load(ctx)
	}()
	require.Eventually(t, func() bool {
		return srv.RequestCount(http.MethodGet, "/api/notifications") == 1
	}, time.Second, time.Millisecond)

	h.Close()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("close must cancel the load in flight")
	}
	assert.Empty(t, h.Notifications())
	assert.Empty(t, toasts.Toasts())
	assert.ErrorIs(t, h.MarkAllRead(ctx), ErrClosed)
	assert.Equal(t, 0, srv.RequestCount(http.MethodPut, "/api/notifications/mark-read"))
}
