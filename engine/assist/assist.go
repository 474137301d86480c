// Package assist is the retrieval and response engine. Given an
// inbound question it embeds the text, retrieves the nearest knowledge
// records, formats a templated reply, and delivers it into the
// conversation as a private note.
package assist

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aibroker/support-assistant/engine/semantic"
	"github.com/aibroker/support-assistant/pkg/resilience"
)

// Embedder turns message text into a query vector.
type Embedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	Dimension(ctx context.Context) (int, error)
}

// Searcher is the vector store surface the engine reads from.
type Searcher interface {
	Search(ctx context.Context, embedding []float32, topK int) ([]semantic.SearchHit, error)
	Exists(ctx context.Context) (bool, error)
}

// Channel delivers replies into the conversation platform.
type Channel interface {
	SendMessage(ctx context.Context, conversationID int64, content string, private bool) error
	Health(ctx context.Context) bool
}

// Options configures retrieval and delivery. Mutated only through
// UpdateSettings, never as ambient state.
type Options struct {
	TopK    int
	Private bool
}

// DefaultOptions returns the standard retrieval settings: three
// nearest answers, delivered as a private note.
func DefaultOptions() Options {
	return Options{TopK: 3, Private: true}
}

// Service is the retrieval and response engine.
type Service struct {
	embedder Embedder
	search   Searcher
	channel  Channel
	breaker  *resilience.Breaker
	logger   *slog.Logger

	mu   sync.RWMutex
	opts Options
}

// New creates a Service.
func New(embedder Embedder, search Searcher, channel Channel, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultOptions().TopK
	}
	return &Service{
		embedder: embedder,
		search:   search,
		channel:  channel,
		breaker:  resilience.NewBreaker(resilience.DefaultBreakerOpts),
		logger:   logger,
		opts:     opts,
	}
}

// Settings returns the current options snapshot.
func (s *Service) Settings() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

// UpdateSettings applies the non-nil fields. The designated mutation
// point for Options.
func (s *Service) UpdateSettings(topK *int, private *bool) Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	if topK != nil && *topK > 0 {
		s.opts.TopK = *topK
		s.logger.Info("settings updated", "top_k", *topK)
	}
	if private != nil {
		s.opts.Private = *private
		s.logger.Info("settings updated", "private", *private)
	}
	return s.opts
}

// Process answers one conversation message. Internal failures are
// caught and logged; the return value only reports whether a reply was
// delivered. One conversation's failure never propagates to others,
// and no error text is ever sent into a live conversation.
func (s *Service) Process(ctx context.Context, conversationID int64, messageText string) bool {
	opts := s.Settings()
	s.logger.Info("processing message", "conversation_id", conversationID, "len", len(messageText))

	qvec, err := s.embedder.EmbedOne(ctx, messageText)
	if err != nil {
		s.logger.Error("query embedding failed", "conversation_id", conversationID, "err", err)
		return false
	}

	hits, err := s.search.Search(ctx, qvec, opts.TopK)
	if err != nil {
		s.logger.Error("similarity search failed", "conversation_id", conversationID, "err", err)
		return false
	}

	var reply string
	if len(hits) == 0 {
		s.logger.Info("no matches in knowledge base", "conversation_id", conversationID)
		reply = formatNoResults(messageText)
	} else {
		reply = formatResults(messageText, hits)
	}

	err = s.breaker.Call(ctx, func(ctx context.Context) error {
		return s.channel.SendMessage(ctx, conversationID, reply, opts.Private)
	})
	if err != nil {
		s.logger.Error("reply delivery failed", "conversation_id", conversationID, "err", err)
		return false
	}

	s.logger.Info("reply delivered", "conversation_id", conversationID, "hits", len(hits), "private", opts.Private)
	return true
}
