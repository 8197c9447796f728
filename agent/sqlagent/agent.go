package sqlagent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
	llmx "github.com/tanpawarit/agentic-query-router/agent/llm"
	metricsx "github.com/tanpawarit/agentic-query-router/pkg/metrics"
)

const (
	minRequestLength = 3
	noRowsMessage    = "No meetings found matching your query."
)

type Config struct {
	AllowWrites bool          `envconfig:"ALLOW_WRITES" split_words:"true" default:"false"`
	MaxRows     int           `envconfig:"MAX_ROWS" split_words:"true" default:"50"`
	Timeout     time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// DB is satisfied by *sql.DB and *bun.DB.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Agent struct {
	cfg       Config
	db        DB
	translate *llmx.TextRunner
}

var _ contractx.DatabaseAnswerer = (*Agent)(nil)

func New(ctx context.Context, cfg Config, db DB, chatModel einomodel.BaseChatModel, systemPrompt string) (*Agent, error) {
	if db == nil {
		return nil, errors.New("sql agent requires a database")
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 50
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	runner, err := llmx.CompileTextGraph(ctx, chatModel, systemPrompt, "Question: {input}", "sqlagent.translate")
	if err != nil {
		return nil, fmt.Errorf("compile sql translation graph: %w", err)
	}
	return &Agent{cfg: cfg, db: db, translate: runner}, nil
}

// Translate returns a guarded SQL statement for text.
func (a *Agent) Translate(ctx context.Context, text string) (string, StatementKind, error) {
	text = strings.TrimSpace(text)
	if len([]rune(text)) < minRequestLength {
		return "", "", fmt.Errorf("%w: request is too short", contractx.ErrTranslation)
	}

	raw, err := a.translate.RunInput(ctx, text)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", contractx.ErrTranslation, err)
	}
	stmt := CleanStatement(raw)
	kind, err := Guard(stmt, text, a.cfg.AllowWrites)
	if err != nil {
		metricsx.SQLStatements.WithLabelValues("rejected").Inc()
		log.Warn().Err(err).Str("statement", stmt).Msg("rejected generated sql")
		return "", "", err
	}
	return stmt, kind, nil
}

func (a *Agent) Query(ctx context.Context, text string) (string, error) {
	stmt, kind, err := a.Translate(ctx, text)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	var answer string
	if kind == KindWrite {
		answer, err = a.exec(ctx, stmt)
	} else {
		answer, err = a.query(ctx, stmt, text)
	}
	if err != nil {
		metricsx.SQLStatements.WithLabelValues("failed").Inc()
		return "", err
	}
	metricsx.SQLStatements.WithLabelValues("executed").Inc()
	log.Debug().Str("statement", stmt).Str("kind", string(kind)).Msg("executed generated sql")
	return answer, nil
}

func (a *Agent) exec(ctx context.Context, stmt string) (string, error) {
	res, err := a.db.ExecContext(ctx, stmt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", contractx.ErrExecution, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "Done.", nil
	}
	if n == 0 {
		return noRowsMessage, nil
	}
	return fmt.Sprintf("Done. %d meeting(s) affected.", n), nil
}

func (a *Agent) query(ctx context.Context, stmt, request string) (string, error) {
	rows, err := a.db.QueryContext(ctx, stmt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", contractx.ErrExecution, err)
	}
	defer rows.Close()

	lines, truncated, err := renderRows(rows, a.cfg.MaxRows)
	if err != nil {
		return "", fmt.Errorf("%w: %w", contractx.ErrExecution, err)
	}
	if len(lines) == 0 {
		return noRowsMessage, nil
	}
	if truncated {
		lines = append(lines, fmt.Sprintf("(showing the first %d rows)", a.cfg.MaxRows))
	}

	body := strings.Join(lines, "\n")
	if prefix := prefixFor(request); prefix != "" {
		return prefix + "\n" + body, nil
	}
	return body, nil
}

// renderRows prints a lone scalar bare and every other row as column: value
// pairs.
func renderRows(rows *sql.Rows, maxRows int) ([]string, bool, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, false, err
	}

	var (
		lines     []string
		scalars   []string
		truncated bool
	)
	for rows.Next() {
		if len(lines) == maxRows {
			truncated = true
			break
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, false, err
		}

		parts := make([]string, len(cols))
		for i, col := range cols {
			parts[i] = col + ": " + formatValue(values[i])
		}
		lines = append(lines, strings.Join(parts, ", "))
		if len(cols) == 1 {
			scalars = append(scalars, formatValue(values[0]))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(cols) == 1 && len(scalars) == 1 {
		return scalars, false, nil
	}
	return lines, truncated, nil
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case time.Time:
		return t.Format("2006-01-02 15:04")
	default:
		return fmt.Sprint(t)
	}
}

func prefixFor(request string) string {
	words := requestWords(request)
	switch {
	case hasWord(words, "list", "show", "all", "get"):
		return "Meetings found:"
	case hasWord(words, "count") || hasPhrase(words, "how", "many"):
		return "Meeting count:"
	case hasWord(words, "search", "find"):
		return "Search results:"
	default:
		return ""
	}
}
