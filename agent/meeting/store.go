package meeting

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/uptrace/bun"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
)

// TableName and Columns describe the fixed schema the SQL agent is told about.
const TableName = "meetings"

var Columns = []string{"id", "title", "start_time", "description"}

const likeEscape = "!"

type Meeting struct {
	bun.BaseModel `bun:"table:meetings,alias:m"`

	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	Title       string `bun:"title,notnull" json:"title"`
	StartTime   string `bun:"start_time,notnull" json:"start_time"`
	Description string `bun:"description,notnull" json:"description"`
}

// MeetingUpdate changes only the non-nil fields.
type MeetingUpdate struct {
	Title       *string `json:"title,omitempty"`
	StartTime   *string `json:"start_time,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (u MeetingUpdate) empty() bool {
	return u.Title == nil && u.StartTime == nil && u.Description == nil
}

type SearchOptions struct {
	CaseSensitive bool
}

type Store struct {
	db bun.IDB
}

func NewStore(db bun.IDB) (*Store, error) {
	if db == nil {
		return nil, errors.New("meeting store requires a database")
	}
	return &Store{db: db}, nil
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*Meeting)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("%w: create meetings table: %w", contractx.ErrStorage, err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, title, startTime, description string) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, fmt.Errorf("%w: meeting title is required", contractx.ErrValidation)
	}

	m := &Meeting{
		Title:       title,
		StartTime:   strings.TrimSpace(startTime),
		Description: strings.TrimSpace(description),
	}
	if _, err := s.db.NewInsert().Model(m).Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: create meeting: %w", contractx.ErrStorage, err)
	}
	return m.ID, nil
}

func (s *Store) GetAll(ctx context.Context) ([]Meeting, error) {
	var out []Meeting
	if err := s.db.NewSelect().Model(&out).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("%w: list meetings: %w", contractx.ErrStorage, err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id int64) (Meeting, error) {
	var m Meeting
	err := s.db.NewSelect().Model(&m).Where("id = ?", id).Limit(1).Scan(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Meeting{}, fmt.Errorf("%w: meeting %d", contractx.ErrNotFound, id)
	case err != nil:
		return Meeting{}, fmt.Errorf("%w: get meeting %d: %w", contractx.ErrStorage, id, err)
	}
	return m, nil
}

// Update returns the stored record after the change. An unknown id leaves the
// table untouched and returns ErrNotFound.
func (s *Store) Update(ctx context.Context, id int64, upd MeetingUpdate) (Meeting, error) {
	if upd.empty() {
		return s.Get(ctx, id)
	}
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return Meeting{}, fmt.Errorf("%w: meeting title cannot be empty", contractx.ErrValidation)
	}

	q := s.db.NewUpdate().Model((*Meeting)(nil)).Where("id = ?", id)
	if upd.Title != nil {
		q = q.Set("title = ?", strings.TrimSpace(*upd.Title))
	}
	if upd.StartTime != nil {
		q = q.Set("start_time = ?", strings.TrimSpace(*upd.StartTime))
	}
	if upd.Description != nil {
		q = q.Set("description = ?", strings.TrimSpace(*upd.Description))
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return Meeting{}, fmt.Errorf("%w: update meeting %d: %w", contractx.ErrStorage, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Meeting{}, fmt.Errorf("%w: meeting %d", contractx.ErrNotFound, id)
	}
	return s.Get(ctx, id)
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*Meeting)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: delete meeting %d: %w", contractx.ErrStorage, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: meeting %d", contractx.ErrNotFound, id)
	}
	return nil
}

// Search matches text as a substring of title or description. The SQL
// LOWER/LIKE prefilter is only consistent across SQLite and Postgres for
// ASCII, so a needle with other characters scans all rows, and every
// candidate is re-checked in Go with the requested case policy.
func (s *Store) Search(ctx context.Context, text string, opts SearchOptions) ([]Meeting, error) {
	if strings.TrimSpace(text) == "" {
		return s.GetAll(ctx)
	}

	var (
		rows []Meeting
		err  error
	)
	if isASCII(text) {
		rows, err = s.prefilter(ctx, text)
	} else {
		rows, err = s.GetAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	match := containsFold
	if opts.CaseSensitive {
		match = strings.Contains
	}
	out := rows[:0]
	for _, m := range rows {
		if match(m.Title, text) || match(m.Description, text) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) prefilter(ctx context.Context, text string) ([]Meeting, error) {
	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
	var rows []Meeting
	err := s.db.NewSelect().
		Model(&rows).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(title) LIKE ? ESCAPE '"+likeEscape+"'", pattern).
				WhereOr("LOWER(description) LIKE ? ESCAPE '"+likeEscape+"'", pattern)
		}).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: search meetings: %w", contractx.ErrStorage, err)
	}
	return rows, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.db.NewSelect().Model((*Meeting)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: count meetings: %w", contractx.ErrStorage, err)
	}
	return n, nil
}

func FormatList(meetings []Meeting) string {
	if len(meetings) == 0 {
		return "No meetings found."
	}

	var b strings.Builder
	b.WriteString("Scheduled Meetings:\n")
	b.WriteString(strings.Repeat("=", 50))
	b.WriteString("\n")
	for i, m := range meetings {
		fmt.Fprintf(&b, "%d. %s at %s\n", i+1, m.Title, m.StartTime)
		if m.Description != "" {
			fmt.Fprintf(&b, "   Description: %s\n", m.Description)
		}
	}
	return b.String()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return r.Replace(s)
}
