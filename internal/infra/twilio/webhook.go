package twilio

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Abdojk/AK-RetrieveCustomerfromF-O/internal/application"
)

const (
	RequestIDHeader = "X-Request-Id"
	maxFormBytes    = 64 << 10
)

// MessageHandler processes one inbound message and always produces a reply.
type MessageHandler interface {
	Handle(ctx context.Context, msg application.InboundMessage) application.Outcome
}

type WebhookServer struct {
	addr        string
	server      *http.Server
	handler     MessageHandler
	validator   *SignatureValidator
	rateLimiter *RateLimiter
	logger      *slog.Logger
	mux         *http.ServeMux
	mu          sync.Mutex
	running     bool
}

func NewWebhookServer(addr string, handler MessageHandler, validator *SignatureValidator, rateLimiter *RateLimiter, logger *slog.Logger) *WebhookServer {
	if rateLimiter == nil {
		rateLimiter = NewRateLimiter(0, time.Minute)
	}
	s := &WebhookServer{
		addr:        addr,
		handler:     handler,
		validator:   validator,
		rateLimiter: rateLimiter,
		logger:      logger,
		mux:         http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /webhook", s.withRequestID(s.handleVerify))
	s.mux.HandleFunc("POST /webhook", s.withRequestID(s.rateLimiter.Middleware(s.handleMessage)))
	s.mux.HandleFunc("GET /health", s.handleHealth)
	return s
}

func (s *WebhookServer) Handler() http.Handler {
	return s.mux
}

// Start listens in the background. Listener errors are sent on the
// returned channel.
func (s *WebhookServer) Start(_ context.Context) <-chan error {
	errCh := make(chan error, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errCh
	}

	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// A message runs download, transcription, extraction and the
		// ERP create synchronously before the reply is written.
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.Info("webhook server starting", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("webhook server error", "error", err)
			errCh <- err
		}
	}()

	s.running = true
	return errCh
}

// Stop shuts the server down, waiting up to timeout for in-flight messages
// to be answered.
func (s *WebhookServer) Stop(timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
		if err := s.server.Close(); err != nil {
			return fmt.Errorf("closing server: %w", err)
		}
	}
	return nil
}

func (s *WebhookServer) withRequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next(w, r.WithContext(contextWithRequestID(r.Context(), id)))
	}
}

func (s *WebhookServer) handleVerify(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *WebhookServer) handleMessage(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With("request_id", requestID(r.Context()))

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		logger.Warn("parsing webhook form", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if err := s.validator.Validate(r); err != nil {
		logger.Warn("invalid webhook signature, rejecting request", "error", err, "remote_addr", r.RemoteAddr)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	msg := application.InboundMessage{
		From:             r.PostForm.Get("From"),
		Body:             r.PostForm.Get("Body"),
		MediaURL:         r.PostForm.Get("MediaUrl0"),
		MediaContentType: r.PostForm.Get("MediaContentType0"),
	}
	if n, err := strconv.Atoi(r.PostForm.Get("NumMedia")); err == nil {
		msg.NumMedia = n
	}

	logger.Info("incoming message", "from", msg.From, "num_media", msg.NumMedia)

	out := s.handler.Handle(r.Context(), msg)
	logger.Info("message handled", "state", out.State, "failed_stage", out.FailedStage)

	s.writeReply(w, logger, out.Reply)
}

func (s *WebhookServer) writeReply(w http.ResponseWriter, logger *slog.Logger, reply string) {
	body, err := MessageResponse(reply)
	if err != nil {
		logger.Error("rendering reply", "error", err)
		body, _ = MessageResponse(application.GenericErrorReply)
	}

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logger.Warn("writing reply", "error", err)
	}
}

func (s *WebhookServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","running":%t}`, running)
}

type requestIDKey struct{}

func contextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
