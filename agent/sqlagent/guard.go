package sqlagent

import (
	"fmt"
	"regexp"
	"strings"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
)

type StatementKind string

const (
	KindRead  StatementKind = "read"
	KindWrite StatementKind = "write"
)

var (
	fencePattern   = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	literalPattern = regexp.MustCompile(`'(?:[^']|'')*'`)
	wordPattern    = regexp.MustCompile(`[A-Za-z_]+`)

	forbiddenWords = map[string]bool{
		"DROP": true, "ALTER": true, "TRUNCATE": true, "CREATE": true,
		"ATTACH": true, "DETACH": true, "PRAGMA": true, "VACUUM": true,
		"REINDEX": true, "GRANT": true, "REVOKE": true, "COPY": true,
	}
	writeWords = map[string]bool{"INSERT": true, "UPDATE": true, "DELETE": true}

	mutationVerbs = []string{
		"create", "add", "insert", "book", "update", "change", "rename",
		"move", "reschedule", "edit", "set", "delete", "remove", "cancel",
	}
	mutationPhrases = [][]string{{"schedule", "a"}, {"new", "meeting"}}
)

// CleanStatement strips markdown fences, surrounding whitespace and trailing
// semicolons from model output.
func CleanStatement(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	s = strings.TrimSpace(s)
	for strings.HasSuffix(s, ";") {
		s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	}
	return s
}

// Guard accepts exactly one statement. Reads are always allowed; writes need
// allowWrites and a request that explicitly asks for a change; schema and
// engine commands are never allowed.
func Guard(statement, request string, allowWrites bool) (StatementKind, error) {
	if statement == "" {
		return "", fmt.Errorf("%w: empty statement", contractx.ErrTranslation)
	}
	if strings.Contains(statement, ";") {
		return "", fmt.Errorf("%w: multiple statements are not allowed", contractx.ErrTranslation)
	}
	if strings.Contains(statement, "--") || strings.Contains(statement, "/*") {
		return "", fmt.Errorf("%w: comments are not allowed", contractx.ErrTranslation)
	}

	words := wordPattern.FindAllString(literalPattern.ReplaceAllString(statement, "''"), -1)
	if len(words) == 0 {
		return "", fmt.Errorf("%w: statement has no keyword", contractx.ErrTranslation)
	}
	hasWrite := false
	for _, w := range words {
		upper := strings.ToUpper(w)
		if forbiddenWords[upper] {
			return "", fmt.Errorf("%w: %s is not allowed", contractx.ErrTranslation, upper)
		}
		if writeWords[upper] {
			hasWrite = true
		}
	}

	switch first := strings.ToUpper(words[0]); {
	case (first == "SELECT" || first == "WITH") && !hasWrite:
		return KindRead, nil
	case first == "WITH" || writeWords[first]:
		if !allowWrites {
			return "", fmt.Errorf("%w: write statements are disabled", contractx.ErrTranslation)
		}
		if !asksForChange(request) {
			return "", fmt.Errorf("%w: request does not ask to change meetings", contractx.ErrTranslation)
		}
		return KindWrite, nil
	default:
		return "", fmt.Errorf("%w: %s statements are not allowed", contractx.ErrTranslation, first)
	}
}

func asksForChange(request string) bool {
	words := requestWords(request)
	if hasWord(words, mutationVerbs...) {
		return true
	}
	for _, phrase := range mutationPhrases {
		if hasPhrase(words, phrase...) {
			return true
		}
	}
	return false
}
