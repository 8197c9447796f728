package retriever

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
	llmx "github.com/tanpawarit/agentic-query-router/agent/llm"
	promptx "github.com/tanpawarit/agentic-query-router/agent/prompt"
	"github.com/tanpawarit/agentic-query-router/agent/vectorstore"
	metricsx "github.com/tanpawarit/agentic-query-router/pkg/metrics"
	"github.com/tanpawarit/agentic-query-router/pkg/websearch"
)

const (
	answerTemplate    = "Context:\n{context}\n\nQuestion: {input}"
	webTemplate       = "Search results:\n{context}\n\nQuestion: {input}"
	relevanceTemplate = "Context: {context}\n\nQuestion: {input}\n\nDoes the context answer the question?"
)

type Source string

const (
	SourceDocuments Source = "documents"
	SourceWeb       Source = "web"
)

type Config struct {
	ChunkSize       int     `envconfig:"CHUNK_SIZE" split_words:"true" default:"1000"`
	ChunkOverlap    int     `envconfig:"CHUNK_OVERLAP" split_words:"true" default:"100"`
	TopK            int     `envconfig:"TOP_K" split_words:"true" default:"3"`
	MinScore        float64 `envconfig:"MIN_SCORE" split_words:"true" default:"0.3"`
	WebResults      int     `envconfig:"WEB_RESULTS" split_words:"true" default:"3"`
	RelevanceCheck  bool    `envconfig:"RELEVANCE_CHECK" split_words:"true" default:"false"`
	ReplaceOnIngest bool    `envconfig:"REPLACE_ON_INGEST" split_words:"true" default:"false"`
}

type WebSearcher interface {
	Search(ctx context.Context, query string, n int) ([]websearch.Result, error)
}

type Answer struct {
	Text   string                    `json:"text"`
	Source Source                    `json:"source"`
	Chunks []vectorstore.ScoredChunk `json:"chunks,omitempty"`
}

type Service struct {
	cfg      Config
	chunker  Chunker
	embedder Embedder
	store    vectorstore.Store
	web      WebSearcher

	answer    *llmx.TextRunner
	webAnswer *llmx.TextRunner
	relevance *llmx.TextRunner

	newID func() string
}

var _ contractx.DocumentAnswerer = (*Service)(nil)

// New wires ingestion and retrieval. web may be nil, in which case a miss in
// the documents is ErrNotFound.
func New(
	ctx context.Context,
	cfg Config,
	embedder Embedder,
	store vectorstore.Store,
	web WebSearcher,
	chatModel einomodel.BaseChatModel,
	prompts promptx.PromptSet,
) (*Service, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if store == nil {
		return nil, errors.New("vector store is required")
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	if cfg.WebResults <= 0 {
		cfg.WebResults = 3
	}

	answer, err := llmx.CompileTextGraph(ctx, chatModel, prompts.Answer, answerTemplate, "retriever.answer")
	if err != nil {
		return nil, err
	}
	webAnswer, err := llmx.CompileTextGraph(ctx, chatModel, prompts.WebAnswer, webTemplate, "retriever.web_answer")
	if err != nil {
		return nil, err
	}
	var relevance *llmx.TextRunner
	if cfg.RelevanceCheck {
		relevance, err = llmx.CompileTextGraph(ctx, chatModel, prompts.Relevance, relevanceTemplate, "retriever.relevance")
		if err != nil {
			return nil, err
		}
	}

	return &Service{
		cfg:       cfg,
		chunker:   NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		embedder:  embedder,
		store:     store,
		web:       web,
		answer:    answer,
		webAnswer: webAnswer,
		relevance: relevance,
		newID:     uuid.NewString,
	}, nil
}

// Ingest stores the document under a fresh id and returns the chunk count.
func (s *Service) Ingest(ctx context.Context, name string, data []byte) (int, error) {
	n, err := s.ingest(ctx, name, data)
	status := "succeeded"
	if err != nil {
		status = "failed"
	}
	metricsx.DocumentsIngested.WithLabelValues(status).Inc()
	return n, err
}

func (s *Service) ingest(ctx context.Context, name string, data []byte) (int, error) {
	text, err := ExtractText(data)
	if err != nil {
		return 0, err
	}
	pieces := s.chunker.Split(text)
	if len(pieces) == 0 {
		return 0, fmt.Errorf("%w: document produced no chunks", contractx.ErrIngest)
	}

	vectors, err := s.embedder.Embed(ctx, pieces)
	if err != nil {
		return 0, fmt.Errorf("%w: embed chunks: %w", contractx.ErrIngest, err)
	}

	docID := s.newID()
	source := strings.TrimSpace(name)
	chunks := make([]vectorstore.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = vectorstore.Chunk{
			ID:         docID + ":" + strconv.Itoa(i),
			DocumentID: docID,
			Source:     source,
			Index:      i,
			Text:       p,
		}
	}

	if s.cfg.ReplaceOnIngest {
		if err := s.store.Clear(ctx); err != nil {
			return 0, fmt.Errorf("%w: clear store: %w", contractx.ErrIngest, err)
		}
	}
	if err := s.store.Upsert(ctx, chunks, vectors); err != nil {
		return 0, fmt.Errorf("%w: store chunks: %w", contractx.ErrIngest, err)
	}

	metricsx.ChunksIngested.Add(float64(len(chunks)))
	log.Info().
		Str("document_id", docID).
		Str("source", source).
		Int("chunks", len(chunks)).
		Msg("document ingested")
	return len(chunks), nil
}

func (s *Service) Answer(ctx context.Context, question string) (string, error) {
	ans, err := s.Query(ctx, question)
	if err != nil {
		return "", err
	}
	return ans.Text, nil
}

// Query answers from stored chunks that clear MinScore and falls back to the
// web when there are none.
func (s *Service) Query(ctx context.Context, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, fmt.Errorf("%w: question is empty", contractx.ErrValidation)
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return Answer{}, fmt.Errorf("%w: count chunks: %w", contractx.ErrStorage, err)
	}
	if count == 0 {
		log.Debug().Msg("chunk store is empty, using web search")
		return s.answerFromWeb(ctx, question)
	}

	vectors, err := s.embedder.Embed(ctx, []string{question})
	if err != nil {
		return Answer{}, fmt.Errorf("%w: embed question: %w", contractx.ErrUpstream, err)
	}
	if len(vectors) != 1 {
		return Answer{}, fmt.Errorf("%w: embed question returned %d vectors", contractx.ErrUpstream, len(vectors))
	}

	candidates, err := s.store.Search(ctx, vectors[0], s.cfg.TopK)
	if err != nil {
		return Answer{}, fmt.Errorf("%w: search chunks: %w", contractx.ErrStorage, err)
	}
	relevant := candidates[:0]
	for _, c := range candidates {
		if c.Score >= s.cfg.MinScore {
			relevant = append(relevant, c)
		}
	}
	if len(relevant) == 0 {
		log.Debug().Int("candidates", len(candidates)).Float64("min_score", s.cfg.MinScore).Msg("no relevant chunks, using web search")
		return s.answerFromWeb(ctx, question)
	}

	excerpts := joinChunks(relevant)
	if s.relevance != nil && !s.contextAnswers(ctx, excerpts, question) {
		return s.answerFromWeb(ctx, question)
	}

	text, err := s.answer.Run(ctx, map[string]any{"context": excerpts, "input": question})
	if err != nil {
		return Answer{}, fmt.Errorf("%w: synthesize answer: %w", contractx.ErrUpstream, err)
	}
	metricsx.RetrievalSource.WithLabelValues(string(SourceDocuments)).Inc()
	return Answer{Text: text, Source: SourceDocuments, Chunks: relevant}, nil
}

func (s *Service) contextAnswers(ctx context.Context, excerpts, question string) bool {
	reply, err := s.relevance.Run(ctx, map[string]any{"context": excerpts, "input": question})
	if err != nil {
		log.Warn().Err(err).Msg("relevance check failed, using web search")
		return false
	}
	return strings.Contains(strings.ToLower(reply), "yes")
}

func (s *Service) answerFromWeb(ctx context.Context, question string) (Answer, error) {
	if s.web == nil {
		return Answer{}, fmt.Errorf("%w: no relevant documents and web search is disabled", contractx.ErrNotFound)
	}

	results, err := s.web.Search(ctx, question, s.cfg.WebResults)
	switch {
	case errors.Is(err, websearch.ErrNoResults):
		return Answer{}, fmt.Errorf("%w: web search found nothing", contractx.ErrNotFound)
	case err != nil:
		return Answer{}, fmt.Errorf("%w: web search: %w", contractx.ErrUpstream, err)
	}

	snippets := make([]string, 0, len(results))
	for _, r := range results {
		snippets = append(snippets, r.Snippet)
	}
	joined := strings.Join(snippets, "\n")

	metricsx.RetrievalSource.WithLabelValues(string(SourceWeb)).Inc()
	text, err := s.webAnswer.Run(ctx, map[string]any{"context": joined, "input": question})
	if err != nil {
		log.Warn().Err(err).Msg("web answer synthesis failed, returning raw snippets")
		return Answer{Text: joined, Source: SourceWeb}, nil
	}
	return Answer{Text: text, Source: SourceWeb}, nil
}

func joinChunks(chunks []vectorstore.ScoredChunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, "\n\n")
}
