package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func msgAt(id, sender, recipient, text string, at time.Time) Message {
	return Message{
		ID:          id,
		SenderID:    sender,
		RecipientID: recipient,
		Text:        text,
		CreatedAt:   at,
	}
}

func TestMemoryStore_AppendIsIdempotentPerID(t *testing.T) {
	req := require.New(t)
	store := NewMemoryStore()
	ctx := context.Background()

	msg := msgAt("m1", "alice", "bob", "hi", time.Now())
	req.NoError(store.Append(ctx, msg))
	req.NoError(store.Append(ctx, msg))

	req.Len(store.All(), 1)
}

func TestMemoryStore_ListBetweenMergesBothDirections(t *testing.T) {
	req := require.New(t)
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()

	req.NoError(store.Append(ctx, msgAt("m1", "alice", "bob", "hi", base)))
	req.NoError(store.Append(ctx, msgAt("m2", "bob", "alice", "hey", base.Add(time.Second))))
	req.NoError(store.Append(ctx, msgAt("m3", "alice", "carol", "yo", base.Add(2*time.Second))))

	conv, err := store.ListBetween(ctx, "alice", "bob", 0)
	req.NoError(err)
	req.Len(conv, 2)
	req.Equal("m1", conv[0].ID)
	req.Equal("m2", conv[1].ID)

	// Same pair queried from the other side yields the same conversation.
	reverse, err := store.ListBetween(ctx, "bob", "alice", 0)
	req.NoError(err)
	req.Equal(conv, reverse)
}

func TestMemoryStore_ListBetweenHonorsLimit(t *testing.T) {
	req := require.New(t)
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()

	for i, id := range []string{"m1", "m2", "m3"} {
		req.NoError(store.Append(ctx, msgAt(id, "alice", "bob", "hi", base.Add(time.Duration(i)*time.Second))))
	}

	conv, err := store.ListBetween(ctx, "alice", "bob", 2)
	req.NoError(err)
	req.Len(conv, 2)
	req.Equal("m1", conv[0].ID)
}
