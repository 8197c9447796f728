package meeting

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
	databasex "github.com/tanpawarit/agentic-query-router/pkg/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := databasex.Open(context.Background(), databasex.Config{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewStore(db)
	require.NoError(t, err)
	require.NoError(t, store.EnsureSchema(context.Background()))
	return store
}

func ptr(s string) *string { return &s }

func TestStoreCRUD(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.Create(ctx, "Sprint review", "2025-01-10 10:00", "Demo the router")
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Sprint review", got.Title)
	assert.Equal(t, "2025-01-10 10:00", got.StartTime)

	updated, err := store.Update(ctx, id, MeetingUpdate{StartTime: ptr("2025-01-11 09:00")})
	require.NoError(t, err)
	assert.Equal(t, "Sprint review", updated.Title)
	assert.Equal(t, "2025-01-11 09:00", updated.StartTime)
	assert.Equal(t, "Demo the router", updated.Description)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Get(ctx, id)
	require.ErrorIs(t, err, contractx.ErrNotFound)
}

func TestStoreCreateRequiresTitle(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	_, err := store.Create(context.Background(), "   ", "2025-01-10", "")
	require.ErrorIs(t, err, contractx.ErrValidation)
}

func TestStoreUpdateUnknownIDLeavesTableUnchanged(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.Create(ctx, "Standup", "09:00", "")
	require.NoError(t, err)

	_, err = store.Update(ctx, id+100, MeetingUpdate{Title: ptr("Changed")})
	require.ErrorIs(t, err, contractx.ErrNotFound)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Standup", all[0].Title)

	err = store.Delete(ctx, id+100)
	require.ErrorIs(t, err, contractx.ErrNotFound)
}

func TestStoreSearchCasePolicies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Create(ctx, "Budget Review", "2025-02-01 14:00", "Q1 numbers")
	require.NoError(t, err)
	_, err = store.Create(ctx, "Team lunch", "2025-02-02 12:00", "review the budget menu")
	require.NoError(t, err)
	_, err = store.Create(ctx, "100% uptime retro", "2025-02-03 15:00", "")
	require.NoError(t, err)
	_, err = store.Create(ctx, "Équipe sync", "2025-02-04 09:00", "ÜBERSICHT der Woche")
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
		opts SearchOptions
		want []string
	}{
		{name: "insensitive matches both fields", text: "REVIEW", want: []string{"Budget Review", "Team lunch"}},
		{name: "sensitive matches exact case only", text: "Review", opts: SearchOptions{CaseSensitive: true}, want: []string{"Budget Review"}},
		{name: "sensitive lower case", text: "review", opts: SearchOptions{CaseSensitive: true}, want: []string{"Team lunch"}},
		{name: "wildcard is literal", text: "%", want: []string{"100% uptime retro"}},
		{name: "underscore is literal", text: "_", want: nil},
		{name: "non-ascii insensitive", text: "équipe", want: []string{"Équipe sync"}},
		{name: "non-ascii sensitive exact", text: "Équipe", opts: SearchOptions{CaseSensitive: true}, want: []string{"Équipe sync"}},
		{name: "non-ascii sensitive wrong case", text: "équipe", opts: SearchOptions{CaseSensitive: true}, want: nil},
		{name: "non-ascii description", text: "übersicht", want: []string{"Équipe sync"}},
		{name: "ascii needle non-ascii row", text: "SYNC", want: []string{"Équipe sync"}},
		{name: "no match", text: "offsite", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Search(ctx, tt.text, tt.opts)
			require.NoError(t, err)
			var titles []string
			for _, m := range got {
				titles = append(titles, m.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestFormatList(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "No meetings found.", FormatList(nil))

	out := FormatList([]Meeting{
		{Title: "Standup", StartTime: "09:00"},
		{Title: "Retro", StartTime: "16:00", Description: "Sprint 12"},
	})
	assert.True(t, strings.HasPrefix(out, "Scheduled Meetings:\n"+strings.Repeat("=", 50)+"\n"))
	assert.Contains(t, out, "1. Standup at 09:00\n")
	assert.Contains(t, out, "2. Retro at 16:00\n   Description: Sprint 12\n")
}
