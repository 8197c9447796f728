package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
	openrouterx "github.com/tanpawarit/agentic-query-router/pkg/openrouter"
)

// Role selects which per-task model override applies.
type Role string

const (
	RoleClassifier Role = "classifier"
	RoleExtractor  Role = "extractor"
	RoleAnswer     Role = "answer"
	RoleSQL        Role = "sql"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.groq.com/openai/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"llama-3.3-70b-versatile"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"1024"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	ClassifierModel   string  `envconfig:"CLASSIFIER_MODEL" split_words:"true"`
	ExtractorModel    string  `envconfig:"EXTRACTOR_MODEL" split_words:"true"`
	AnswerModel       string  `envconfig:"ANSWER_MODEL" split_words:"true"`
	SQLModel          string  `envconfig:"SQL_MODEL" split_words:"true"`
	AnswerTemperature float32 `envconfig:"ANSWER_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: llm api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// OpenRouterFor resolves the client config for role. Classification,
// extraction and SQL always run at the base temperature.
func (c Config) OpenRouterFor(role Role) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	override := ""
	switch role {
	case RoleClassifier:
		override = c.ClassifierModel
	case RoleExtractor:
		override = c.ExtractorModel
	case RoleAnswer:
		override = c.AnswerModel
		if c.AnswerTemperature >= 0 {
			temp = c.AnswerTemperature
		}
	case RoleSQL:
		override = c.SQLModel
	}
	if v := strings.TrimSpace(override); v != "" {
		modelName = v
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}

// Models holds one chat model per role.
type Models struct {
	Classifier einomodel.BaseChatModel
	Extractor  einomodel.BaseChatModel
	Answer     einomodel.BaseChatModel
	SQL        einomodel.BaseChatModel
}

func NewModels(ctx context.Context, cfg Config) (Models, error) {
	if err := cfg.Validate(); err != nil {
		return Models{}, err
	}

	build := func(role Role) (einomodel.BaseChatModel, error) {
		rc := cfg.OpenRouterFor(role)
		m, err := rc.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("build %s model: %w", role, err)
		}
		return m, nil
	}

	var (
		out Models
		err error
	)
	if out.Classifier, err = build(RoleClassifier); err != nil {
		return Models{}, err
	}
	if out.Extractor, err = build(RoleExtractor); err != nil {
		return Models{}, err
	}
	if out.Answer, err = build(RoleAnswer); err != nil {
		return Models{}, err
	}
	if out.SQL, err = build(RoleSQL); err != nil {
		return Models{}, err
	}
	return out, nil
}
