package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/classifier.txt
	classifierRaw string

	//go:embed template/city.txt
	cityRaw string

	//go:embed template/answer.txt
	answerRaw string

	//go:embed template/web_answer.txt
	webAnswerRaw string

	//go:embed template/relevance.txt
	relevanceRaw string

	//go:embed template/sql.txt
	sqlRaw string
)

// PromptSet holds the system prompts. None of them may contain braces: they
// are rendered as FString templates.
type PromptSet struct {
	Classifier string
	City       string
	Answer     string
	WebAnswer  string
	Relevance  string
	SQL        string
}

func LoadPromptSet() PromptSet {
	return PromptSet{
		Classifier: strings.TrimSpace(classifierRaw),
		City:       strings.TrimSpace(cityRaw),
		Answer:     strings.TrimSpace(answerRaw),
		WebAnswer:  strings.TrimSpace(webAnswerRaw),
		Relevance:  strings.TrimSpace(relevanceRaw),
		SQL:        strings.TrimSpace(sqlRaw),
	}
}
