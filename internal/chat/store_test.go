package chat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akobyansamvel/curs/internal/chat"
	"github.com/akobyansamvel/curs/internal/models"
)

func msgID(id int64) *int64 { return &id }

func confirmed(id int64, sender models.UserRef, content string, at time.Time) models.ChatMessage {
	return models.ChatMessage{ID: msgID(id), Sender: &sender, Content: content, CreatedAt: at}
}

var (
	alice = models.UserRef{ID: 1, Username: "alice"}
	boris = models.UserRef{ID: 2, Username: "boris"}
)

// TestStoreSnapshotInitialLoad verifies that the first history fetch replaces
// the empty list and marks the store loaded.
func TestStoreSnapshotInitialLoad(t *testing.T) {
	// Arrange
	store := chat.NewStore()
	base := time.Now()
	history := []models.ChatMessage{
		confirmed(1, alice, "привет", base),
		confirmed(2, boris, "привет!", base.Add(time.Second)),
	}

	// Act
	store.ApplySnapshot(history)

	// Assert
	assert.True(t, store.Loaded())
	msgs := store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(1), *msgs[0].ID)
	assert.Equal(t, int64(2), *msgs[1].ID)
}

// TestStoreMessagesSortedUniqueIDs verifies the core invariant: the snapshot
// is always sorted ascending by timestamp and no two entries share an ID,
// regardless of the order the sources delivered them in.
func TestStoreMessagesSortedUniqueIDs(t *testing.T) {
	// Arrange
	store := chat.NewStore()
	base := time.Now()

	// Act - deliver out of order and with a duplicate
	store.ApplyLive(confirmed(3, boris, "третье", base.Add(3*time.Second)))
	store.ApplyLive(confirmed(1, alice, "первое", base.Add(1*time.Second)))
	store.ApplyLive(confirmed(2, alice, "второе", base.Add(2*time.Second)))
	store.ApplyLive(confirmed(2, alice, "второе", base.Add(2*time.Second)))

	// Assert
	msgs := store.Messages()
	require.Len(t, msgs, 3)
	seen := make(map[int64]bool)
	for i, m := range msgs {
		require.NotNil(t, m.ID)
		assert.False(t, seen[*m.ID], "duplicate id %d", *m.ID)
		seen[*m.ID] = true
		if i > 0 {
			assert.False(t, m.CreatedAt.Before(msgs[i-1].CreatedAt), "list must be sorted")
		}
	}
}

// TestStoreOptimisticAppend verifies that a local send becomes visible
// immediately as a pending entry with an attempt token.
func TestStoreOptimisticAppend(t *testing.T) {
	// Arrange
	store := chat.NewStore()
	store.ApplySnapshot([]models.ChatMessage{confirmed(1, boris, "старое", time.Now().Add(-time.Hour))})

	// Act
	entry := store.AddOptimistic(alice, "новое сообщение")

	// Assert
	assert.True(t, entry.Pending)
	assert.Nil(t, entry.ID)
	assert.NotEmpty(t, entry.LocalToken)
	msgs := store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "новое сообщение", msgs[1].Content)
}

// TestStoreConfirmReplacesPending verifies that the send response supersedes
// the optimistic entry instead of adding a second copy.
func TestStoreConfirmReplacesPending(t *testing.T) {
	// Arrange
	store := chat.NewStore()
	entry := store.AddOptimistic(alice, "текст")

	// Act
	store.Confirm(entry.LocalToken, confirmed(10, alice, "текст", time.Now()))

	// Assert
	msgs := store.Messages()
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].Pending)
	require.NotNil(t, msgs[0].ID)
	assert.Equal(t, int64(10), *msgs[0].ID)
}

// TestStoreConfirmKeepsAttemptToken verifies that the confirmed entry keeps
// the attempt token of the pending one it replaced, whichever path delivered
// the confirmation, so a view tracking entries by token never sees the same
// message twice.
func TestStoreConfirmKeepsAttemptToken(t *testing.T) {
	// Arrange
	store := chat.NewStore()
	viaConfirm := store.AddOptimistic(alice, "ответом")
	viaEcho := store.AddOptimistic(alice, "эхом")

	// Act
	store.Confirm(viaConfirm.LocalToken, confirmed(20, alice, "ответом", time.Now()))
	store.ApplyLive(confirmed(21, alice, "эхом", time.Now()))

	// Assert
	tokens := make(map[string]bool)
	for _, m := range store.Messages() {
		assert.True(t, m.Confirmed())
		tokens[m.LocalToken] = true
	}
	assert.True(t, tokens[viaConfirm.LocalToken])
	assert.True(t, tokens[viaEcho.LocalToken])
}

// TestStoreLiveEchoThenConfirm verifies that a live echo of the user's own
// message followed by the send response yields exactly one entry.
func TestStoreLiveEchoThenConfirm(t *testing.T) {
	// Arrange
	store := chat.NewStore()
	entry := store.AddOptimistic(alice, "эхо")
	echo := confirmed(7, alice, "эхо", time.Now())

	// Act - the websocket echo lands before the REST response
	store.ApplyLive(echo)
	store.Confirm(entry.LocalToken, echo)

	// Assert
	msgs := store.Messages()
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].ID)
	assert.Equal(t, int64(7), *msgs[0].ID)
	assert.False(t, msgs[0].Pending)
}

// TestStoreIdenticalTextsBackToBack verifies that each of two identical
// pending texts consumes its own confirmation: the attempt token is retired
// on first match.
func TestStoreIdenticalTextsBackToBack(t *testing.T) {
	// Arrange
	store := chat.NewStore()
	first := store.AddOptimistic(alice, "ну")
	second := store.AddOptimistic(alice, "ну")
	require.NotEqual(t, first.LocalToken, second.LocalToken)

	// Act - live echoes for both arrive, then both confirmations
	now := time.Now()
	store.ApplyLive(confirmed(20, alice, "ну", now))
	store.ApplyLive(confirmed(21, alice, "ну", now.Add(time.Second)))
	store.Confirm(first.LocalToken, confirmed(20, alice, "ну", now))
	store.Confirm(second.LocalToken, confirmed(21, alice, "ну", now.Add(time.Second)))

	// Assert - two entries, both confirmed, no leftovers
	msgs := store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(20), *msgs[0].ID)
	assert.Equal(t, int64(21), *msgs[1].ID)
	for _, m := range msgs {
		assert.False(t, m.Pending)
	}
}

// TestStorePollNeverDropsPending verifies that a re-fetch not containing the
// optimistic entry keeps it: polling can never shorten the displayed list.
func TestStorePollNeverDropsPending(t *testing.T) {
	// Arrange
	store := chat.NewStore()
	base := time.Now()
	history := []models.ChatMessage{confirmed(1, boris, "старое", base.Add(-time.Minute))}
	store.ApplySnapshot(history)
	store.AddOptimistic(alice, "ещё не на сервере")

	// Act - the server still returns only the old message
	store.ApplySnapshot(history)

	// Assert
	msgs := store.Messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[1].Pending)
	assert.Equal(t, "ещё не на сервере", msgs[1].Content)
}

// TestStoreSnapshotSupersedesPending verifies that a re-fetch whose snapshot
// includes the confirmed counterpart retires the pending entry.
func TestStoreSnapshotSupersedesPending(t *testing.T) {
	// Arrange
	store := chat.NewStore()
	store.ApplySnapshot(nil)
	store.AddOptimistic(alice, "дошло")

	// Act - the next poll returns the message with its server identifier
	store.ApplySnapshot([]models.ChatMessage{confirmed(5, alice, "дошло", time.Now())})

	// Assert
	msgs := store.Messages()
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].ID)
	assert.Equal(t, int64(5), *msgs[0].ID)
	assert.False(t, msgs[0].Pending)
}

// TestStoreSecondaryMatchWindow verifies that the timestamp window bounds the
// fallback dedup key: an identical text outside the window is a new message.
func TestStoreSecondaryMatchWindow(t *testing.T) {
	// Arrange
	store := chat.NewStore()
	store.Window = time.Minute
	store.AddOptimistic(alice, "опять ты")

	// Act - a confirmed message with the same text but far in the future
	store.ApplyLive(confirmed(30, alice, "опять ты", time.Now().Add(2*time.Hour)))

	// Assert - both survive: the old pending and the new confirmed
	msgs := store.Messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].Pending)
	require.NotNil(t, msgs[1].ID)
}

// TestStoreEqualTimestampsStableOrder verifies that entries sharing a
// timestamp keep a deterministic order by identifier.
func TestStoreEqualTimestampsStableOrder(t *testing.T) {
	// Arrange
	store := chat.NewStore()
	at := time.Now()

	// Act
	store.ApplyLive(confirmed(2, boris, "b", at))
	store.ApplyLive(confirmed(1, alice, "a", at))

	// Assert
	msgs := store.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(1), *msgs[0].ID)
	assert.Equal(t, int64(2), *msgs[1].ID)
}
