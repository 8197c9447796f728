package sqlagent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
	"github.com/tanpawarit/agentic-query-router/agent/llm/llmtest"
	"github.com/tanpawarit/agentic-query-router/agent/meeting"
	databasex "github.com/tanpawarit/agentic-query-router/pkg/database"
)

func newMockAgent(t *testing.T, cfg Config, replies ...string) (*Agent, sqlmock.Sqlmock, *llmtest.ChatModel) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	model := llmtest.New(replies...)
	agent, err := New(context.Background(), cfg, db, model, "translate to sql")
	require.NoError(t, err)
	return agent, mock, model
}

func TestQueryListMeetings(t *testing.T) {
	t.Parallel()

	agent, mock, _ := newMockAgent(t, Config{}, "```sql\nSELECT title, start_time FROM meetings ORDER BY start_time;\n```")
	mock.ExpectQuery("SELECT title, start_time FROM meetings ORDER BY start_time").
		WillReturnRows(sqlmock.NewRows([]string{"title", "start_time"}).
			AddRow("Standup", "2025-01-10 09:00").
			AddRow("Retro", "2025-01-10 16:00"))

	out, err := agent.Query(context.Background(), "List all meetings")
	require.NoError(t, err)
	assert.Equal(t, "Meetings found:\ntitle: Standup, start_time: 2025-01-10 09:00\ntitle: Retro, start_time: 2025-01-10 16:00", out)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryCount(t *testing.T) {
	t.Parallel()

	agent, mock, _ := newMockAgent(t, Config{}, "SELECT COUNT(*) FROM meetings")
	mock.ExpectQuery("SELECT COUNT(*) FROM meetings").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(3)))

	out, err := agent.Query(context.Background(), "How many meetings do we have?")
	require.NoError(t, err)
	assert.Equal(t, "Meeting count:\n3", out)
}

func TestQueryNoRows(t *testing.T) {
	t.Parallel()

	agent, mock, _ := newMockAgent(t, Config{}, "SELECT title FROM meetings WHERE LOWER(title) LIKE '%offsite%'")
	mock.ExpectQuery("SELECT title FROM meetings WHERE LOWER(title) LIKE '%offsite%'").
		WillReturnRows(sqlmock.NewRows([]string{"title", "start_time"}))

	out, err := agent.Query(context.Background(), "Find the offsite meeting")
	require.NoError(t, err)
	assert.Equal(t, "No meetings found matching your query.", out)
}

func TestQueryMaxRows(t *testing.T) {
	t.Parallel()

	agent, mock, _ := newMockAgent(t, Config{MaxRows: 2}, "SELECT id, title FROM meetings")
	rows := sqlmock.NewRows([]string{"id", "title"})
	for i := 1; i <= 4; i++ {
		rows.AddRow(int64(i), fmt.Sprintf("m%d", i))
	}
	mock.ExpectQuery("SELECT id, title FROM meetings").WillReturnRows(rows)

	out, err := agent.Query(context.Background(), "what meetings exist")
	require.NoError(t, err)
	assert.Equal(t, "id: 1, title: m1\nid: 2, title: m2\n(showing the first 2 rows)", out)
}

func TestQueryExecutionError(t *testing.T) {
	t.Parallel()

	agent, mock, _ := newMockAgent(t, Config{}, "SELECT * FROM meeting")
	mock.ExpectQuery("SELECT * FROM meeting").WillReturnError(errors.New("no such table: meeting"))

	_, err := agent.Query(context.Background(), "show meetings")
	require.ErrorIs(t, err, contractx.ErrExecution)
}

func TestQueryRejectsWritesByDefault(t *testing.T) {
	t.Parallel()

	agent, mock, _ := newMockAgent(t, Config{}, "DELETE FROM meetings WHERE id = 1")
	_, err := agent.Query(context.Background(), "Cancel meeting 1")
	require.ErrorIs(t, err, contractx.ErrTranslation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryAllowedWrite(t *testing.T) {
	t.Parallel()

	agent, mock, _ := newMockAgent(t, Config{AllowWrites: true}, "UPDATE meetings SET start_time = '2025-01-12 10:00' WHERE id = 2;")
	mock.ExpectExec("UPDATE meetings SET start_time = '2025-01-12 10:00' WHERE id = 2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	out, err := agent.Query(context.Background(), "Reschedule meeting 2 to Jan 12 10am")
	require.NoError(t, err)
	assert.Equal(t, "Done. 1 meeting(s) affected.", out)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryShortRequest(t *testing.T) {
	t.Parallel()

	agent, _, model := newMockAgent(t, Config{}, "SELECT 1")
	_, err := agent.Query(context.Background(), " hi ")
	require.ErrorIs(t, err, contractx.ErrTranslation)
	assert.Zero(t, model.Calls())
}

func TestQueryModelFailure(t *testing.T) {
	t.Parallel()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	agent, err := New(context.Background(), Config{}, db, llmtest.Failing(errors.New("timeout")), "translate")
	require.NoError(t, err)

	_, err = agent.Query(context.Background(), "List all meetings")
	require.ErrorIs(t, err, contractx.ErrTranslation)
	require.ErrorIs(t, err, contractx.ErrModelInvoke)
}

func TestGuard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		stmt        string
		request     string
		allowWrites bool
		want        StatementKind
		wantErr     bool
	}{
		{name: "select", stmt: "SELECT * FROM meetings", want: KindRead},
		{name: "cte", stmt: "WITH t AS (SELECT id FROM meetings) SELECT COUNT(*) FROM t", want: KindRead},
		{name: "keyword in literal", stmt: "SELECT * FROM meetings WHERE title LIKE '%drop table%'", want: KindRead},
		{name: "two statements", stmt: "SELECT 1; DROP TABLE meetings", wantErr: true},
		{name: "comment", stmt: "SELECT 1 -- sneaky", wantErr: true},
		{name: "drop", stmt: "DROP TABLE meetings", request: "delete everything", allowWrites: true, wantErr: true},
		{name: "pragma", stmt: "PRAGMA table_info(meetings)", wantErr: true},
		{name: "attach", stmt: "ATTACH DATABASE 'x.db' AS x", wantErr: true},
		{name: "insert disabled", stmt: "INSERT INTO meetings (title) VALUES ('x')", request: "add a meeting", wantErr: true},
		{name: "insert without intent", stmt: "INSERT INTO meetings (title) VALUES ('x')", request: "what meetings are there", allowWrites: true, wantErr: true},
		{name: "insert with intent", stmt: "INSERT INTO meetings (title, start_time, description) VALUES ('x', '2025-01-01 10:00', '')", request: "Add a meeting called x", allowWrites: true, want: KindWrite},
		{name: "delete with intent", stmt: "DELETE FROM meetings WHERE id = 3", request: "cancel meeting 3", allowWrites: true, want: KindWrite},
		{name: "word inside another word", stmt: "UPDATE meetings SET description = 'x' WHERE id = 1", request: "what is the address of meeting 1", allowWrites: true, wantErr: true},
		{name: "explain", stmt: "EXPLAIN SELECT 1", wantErr: true},
		{name: "empty", stmt: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Guard(tt.stmt, tt.request, tt.allowWrites)
			if tt.wantErr {
				require.ErrorIs(t, err, contractx.ErrTranslation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrefixFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		request string
		want    string
	}{
		{request: "List all meetings", want: "Meetings found:"},
		{request: "Show me tomorrow's meetings", want: "Meetings found:"},
		{request: "How many meetings are there?", want: "Meeting count:"},
		{request: "count the budget meetings", want: "Meeting count:"},
		{request: "search for the budget meeting", want: "Search results:"},
		{request: "find meetings I keep forgetting", want: "Search results:"},
		{request: "when is the budget review", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, prefixFor(tt.request), tt.request)
	}
}

func TestAsksForChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		request string
		want    bool
	}{
		{request: "Add a meeting called retro", want: true},
		{request: "please remove meeting 4", want: true},
		{request: "move the standup to 10:00", want: true},
		{request: "Schedule a sync on Monday", want: true},
		{request: "create a new meeting", want: true},
		{request: "what is the address of meeting 1", want: false},
		{request: "which meetings are settled", want: false},
		{request: "list meetings", want: false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, asksForChange(tt.request), tt.request)
	}
}

func TestCleanStatement(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "SELECT 1", CleanStatement("```sql\nSELECT 1;\n```"))
	assert.Equal(t, "SELECT 1", CleanStatement("  SELECT 1 ;; "))
	assert.Equal(t, "SELECT 1", CleanStatement("```\nSELECT 1\n```"))
}

func TestQueryAgainstMeetingStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := databasex.Open(ctx, databasex.Config{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := meeting.NewStore(db)
	require.NoError(t, err)
	require.NoError(t, store.EnsureSchema(ctx))
	_, err = store.Create(ctx, "Budget review", "2025-03-01 10:00", "Q1")
	require.NoError(t, err)
	_, err = store.Create(ctx, "Team lunch", "2025-03-02 12:00", "")
	require.NoError(t, err)

	agent, err := New(ctx, Config{}, db, llmtest.New("SELECT title FROM meetings WHERE LOWER(title) LIKE '%budget%'"), "translate")
	require.NoError(t, err)

	out, err := agent.Query(ctx, "search for the budget meeting")
	require.NoError(t, err)
	assert.Equal(t, "Search results:\nBudget review", out)
}
