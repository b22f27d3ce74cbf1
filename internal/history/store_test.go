// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/foachat-tui/internal/conversation"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleTranscript() []conversation.Message {
	return []conversation.Message{
		conversation.NewAssistantMessage(conversation.Greeting),
		conversation.NewUserMessage("what is Go?"),
		conversation.NewAssistantMessage("A programming language."),
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Save(ctx, "what is Go?", sampleTranscript())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	msgs, err := store.Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, conversation.RoleUser, msgs[1].Role)
	require.Equal(t, "what is Go?", msgs[1].Content)
	require.Equal(t, "A programming language.", msgs[2].Content)
}

func TestStore_ListRecentNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Save(ctx, fmt.Sprintf("conversation %d", i), sampleTranscript())
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond) // distinct updated_at ordering
	}

	list, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "conversation 2", list[0].Title)
	require.Equal(t, "conversation 0", list[2].Title)
	require.Equal(t, 3, list[0].Messages)
}

func TestStore_ListRecentHonorsLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.Save(ctx, fmt.Sprintf("c%d", i), nil)
		require.NoError(t, err)
	}
	list, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestStore_DeleteCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Save(ctx, "doomed", sampleTranscript())
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, id))

	msgs, err := store.Load(ctx, id)
	require.NoError(t, err)
	require.Empty(t, msgs)

	list, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestStore_PruneKeepsNewest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.Save(ctx, fmt.Sprintf("c%d", i), sampleTranscript())
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, store.Prune(ctx, 2))

	list, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "c4", list[0].Title)
	require.Equal(t, "c3", list[1].Title)
}
