package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	contractx "github.com/tanpawarit/agentic-query-router/agent/contract"
	"github.com/tanpawarit/agentic-query-router/agent/meeting"
)

type Config struct {
	Addr            string        `envconfig:"ADDR" split_words:"true" default:":8000"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" split_words:"true" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" split_words:"true" default:"120s"`
	IdleTimeout     time.Duration `envconfig:"IDLE_TIMEOUT" split_words:"true" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" split_words:"true" default:"10s"`
	MaxUploadBytes  int64         `envconfig:"MAX_UPLOAD_BYTES" split_words:"true" default:"33554432"`
}

type Router interface {
	Route(ctx context.Context, query string) (contractx.RouteResult, error)
}

type Ingester interface {
	Ingest(ctx context.Context, name string, data []byte) (int, error)
}

type MeetingStore interface {
	Create(ctx context.Context, title, startTime, description string) (int64, error)
	GetAll(ctx context.Context) ([]meeting.Meeting, error)
	Get(ctx context.Context, id int64) (meeting.Meeting, error)
	Update(ctx context.Context, id int64, upd meeting.MeetingUpdate) (meeting.Meeting, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, text string, opts meeting.SearchOptions) ([]meeting.Meeting, error)
}

type Server struct {
	router   Router
	ingester Ingester
	meetings MeetingStore

	maxUploadBytes int64
}

func New(router Router, ingester Ingester, meetings MeetingStore, cfg Config) (*Server, error) {
	if router == nil {
		return nil, errors.New("router is required")
	}
	if ingester == nil {
		return nil, errors.New("ingester is required")
	}
	if meetings == nil {
		return nil, errors.New("meeting store is required")
	}

	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	return &Server{
		router:         router,
		ingester:       ingester,
		meetings:       meetings,
		maxUploadBytes: maxUpload,
	}, nil
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(instrument)

	r.HandleFunc("/upload", s.handleUpload).Methods(http.MethodPost)
	r.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)

	r.HandleFunc("/meetings", s.listMeetings).Methods(http.MethodGet)
	r.HandleFunc("/meetings", s.createMeeting).Methods(http.MethodPost)
	r.HandleFunc("/meetings/{id:[0-9]+}", s.getMeeting).Methods(http.MethodGet)
	r.HandleFunc("/meetings/{id:[0-9]+}", s.updateMeeting).Methods(http.MethodPatch)
	r.HandleFunc("/meetings/{id:[0-9]+}", s.deleteMeeting).Methods(http.MethodDelete)

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// NewHTTPServer wraps h with the configured timeouts.
func NewHTTPServer(cfg Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
