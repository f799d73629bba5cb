package notify

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWriterNotifier(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriterNotifier(&buf)

	w.Notify(Success("Post liked!", "You liked this post."))
	w.Notify(Failure("Failed to add comment.", nil))
	w.Notify(Info("Synced", ""))

	assert.Equal(t, "✓ Post liked!: You liked this post.\n✗ Error: Failed to add comment.\n• Synced\n", buf.String())
}

func TestFailure(t *testing.T) {
	n := Failure("Failed to delete post", errors.New("Post not found"))
	assert.Equal(t, LevelError, n.Level)
	assert.Equal(t, "Failed to delete post: Post not found", n.Message)
	assert.Equal(t, "Post not found", Failure("", errors.New("Post not found")).Message)
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := NewLogNotifier(zap.New(core))

	l.Notify(Success("Report submitted", "ok"))
	l.Notify(Failure("", errors.New("boom")))

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, zap.InfoLevel, entries[0].Level)
		assert.Equal(t, zap.WarnLevel, entries[1].Level)
		assert.Equal(t, "boom", entries[1].ContextMap()["message"])
	}
}

func TestMultiAndRecorder(t *testing.T) {
	var a, b Recorder
	var count int
	m := Multi{&a, nil, &b, Func(func(Notice) { count++ }), Nop{}}

	m.Notify(Info("x", "y"))

	assert.Len(t, a.Notices(), 1)
	assert.Len(t, b.Notices(), 1)
	assert.Equal(t, 1, count)
	last, ok := a.Last()
	assert.True(t, ok)
	assert.Equal(t, "x", last.Title)
}
