package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/reviewly/reviewly/internal/infrastructure/reviewly"
	"github.com/reviewly/reviewly/pkg/logger"
)

const DefaultGreeting = "Hello! I am your virtual assistant. How can I assist you today?"

// Snapshot is a consistent copy of the session as presentation layers see it
type Snapshot struct {
	Messages  []ChatMessage `json:"messages"`
	State     State         `json:"state"`
	IsLoading bool          `json:"is_loading"`
}

// QueryRecorder stores prompts in the user's query history
type QueryRecorder interface {
	SaveQuery(ctx context.Context, queryText string) error
}

// TokenSource reports whether a user is logged in
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

type Option func(*Session)

// WithGreeting opens the conversation with a bot message
func WithGreeting(text string) Option {
	return func(s *Session) {
		s.greeting = text
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithIdleTimeout fails a stream that delivers nothing for d. Zero disables it.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.idleTimeout = d
	}
}

// WithHistory records each answered prompt while a token is stored
func WithHistory(recorder QueryRecorder, tokens TokenSource) Option {
	return func(s *Session) {
		s.history = recorder
		s.tokens = tokens
	}
}

// Session owns the message list of one chat widget and consumes one response
// stream at a time.
type Session struct {
	mu        sync.Mutex
	messages  []ChatMessage
	state     State
	isLoading bool

	// data attached to the current response, kept so it survives a status tail
	pendingReviews  []int
	pendingProducts []reviewly.Product

	transport   Transport
	greeting    string
	now         func() time.Time
	idleTimeout time.Duration
	history     QueryRecorder
	tokens      TokenSource

	observerMu     sync.RWMutex
	onChange       []func(Snapshot)
	onAdditionalFn []func(AdditionalData)
}

func NewSession(transport Transport, opts ...Option) *Session {
	s := &Session{
		transport: transport,
		state:     StateIdle,
		now:       time.Now,
		messages:  []ChatMessage{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.greeting != "" {
		s.messages = append(s.messages, newMessage(SenderBot, s.greeting, s.now()))
	}
	return s
}

// OnChange registers fn to receive a snapshot after every change to the message list
func (s *Session) OnChange(fn func(Snapshot)) {
	s.observerMu.Lock()
	defer s.observerMu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// OnAdditionalData registers fn for the first products, or failing that the
// first review ids, a response references.
func (s *Session) OnAdditionalData(fn func(AdditionalData)) {
	s.observerMu.Lock()
	defer s.observerMu.Unlock()
	s.onAdditionalFn = append(s.onAdditionalFn, fn)
}

func (s *Session) Messages() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChatMessage(nil), s.messages...)
}

func (s *Session) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isLoading
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Messages:  append([]ChatMessage(nil), s.messages...),
		State:     s.state,
		IsLoading: s.isLoading,
	}
}

// Submit sends prompt and blocks until its response stream has been consumed.
// Stream failures end up as a bot message, not as a returned error.
func (s *Session) Submit(ctx context.Context, prompt, contextID string) error {
	done, err := s.Start(ctx, prompt, contextID)
	if err != nil {
		return err
	}
	<-done
	return nil
}

// Start validates prompt, appends the user message and its placeholder, and
// consumes the response in the background. The returned channel is closed once
// the stream has ended.
func (s *Session) Start(ctx context.Context, prompt, contextID string) (<-chan struct{}, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	s.mu.Lock()
	if s.state.InFlight() {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	now := s.now()
	s.messages = append(s.messages, newMessage(SenderUser, prompt, now), newMessage(SenderBot, "", now))
	s.state = StateAwaiting
	s.isLoading = true
	s.pendingReviews = nil
	s.pendingProducts = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notifyChange(snap)
	logger.Info(logger.CHAT, "Submitting prompt (%d chars)", len(prompt))

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.consume(ctx, Request{Prompt: prompt, ProductID: contextID})
	}()
	return done, nil
}

func (s *Session) consume(ctx context.Context, req Request) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var idle atomic.Bool
	var timer *time.Timer
	if s.idleTimeout > 0 {
		timer = time.AfterFunc(s.idleTimeout, func() {
			idle.Store(true)
			cancel()
		})
		defer timer.Stop()
	}

	idleErr := func(err error) error {
		if idle.Load() {
			return &StreamError{
				Kind:    NetworkFailure,
				Message: fmt.Sprintf("no data received for %s", s.idleTimeout),
				Err:     context.DeadlineExceeded,
			}
		}
		return err
	}

	body, err := s.transport.Open(ctx, req)
	if err != nil {
		s.fail(idleErr(err))
		return
	}
	defer body.Close()

	reader := newChunkReader(body)
	for {
		chunk, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.fail(idleErr(err))
			return
		}
		if timer != nil {
			timer.Reset(s.idleTimeout)
		}
		s.apply(chunk)
	}

	s.finish()
	s.record(ctx, req.Prompt)
}

// apply reconciles one chunk into the message list under the session lock
func (s *Session) apply(chunk string) {
	f := classify(chunk)

	s.mu.Lock()
	var event *AdditionalData
	switch f.kind {
	case fragmentStatus:
		status := newMessage(SenderBot, f.text, s.now())
		status.IsStatus = true
		status.ReviewIDs, status.Products = s.pendingData()
		s.replaceTail(status)
		s.isLoading = false
		s.state = StateStreamingWithStatus
		logger.Debug(logger.CHAT, "Status update: %s", f.text)
	case fragmentAdditionalData:
		event = s.attach(f.reviewIDs, f.products)
	default:
		s.appendText(f.text)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notifyChange(snap)
	if event != nil {
		s.notifyAdditional(*event)
	}
}

func (s *Session) appendText(text string) {
	if s.state == StateStreamingWithStatus {
		s.messages = s.messages[:len(s.messages)-1]
		fresh := newMessage(SenderBot, text, s.now())
		fresh.ReviewIDs, fresh.Products = s.pendingData()
		s.messages = append(s.messages, fresh)
	} else {
		tail := s.messages[len(s.messages)-1]
		tail.Text += text
		s.messages[len(s.messages)-1] = tail
	}
	s.state = StateStreaming
}

// attach stores non-empty review ids and products on the response and returns
// the event to publish when either first became non-empty.
func (s *Session) attach(reviewIDs []int, products []reviewly.Product) *AdditionalData {
	hadReviews := len(s.pendingReviews) > 0
	hadProducts := len(s.pendingProducts) > 0

	if len(reviewIDs) > 0 {
		s.pendingReviews = reviewIDs
	}
	if len(products) > 0 {
		s.pendingProducts = products
	}

	tail := s.messages[len(s.messages)-1]
	tail.ReviewIDs, tail.Products = s.pendingData()
	s.messages[len(s.messages)-1] = tail

	if !hadProducts && len(s.pendingProducts) > 0 {
		return &AdditionalData{Products: s.pendingProducts}
	}
	if !hadReviews && len(s.pendingReviews) > 0 {
		return &AdditionalData{Reviews: s.pendingReviews}
	}
	return nil
}

func (s *Session) pendingData() ([]int, []reviewly.Product) {
	reviews := s.pendingReviews
	if reviews == nil {
		reviews = []int{}
	}
	products := s.pendingProducts
	if products == nil {
		products = []reviewly.Product{}
	}
	return reviews, products
}

func (s *Session) replaceTail(msg ChatMessage) {
	s.messages[len(s.messages)-1] = msg
}

func (s *Session) finish() {
	s.mu.Lock()
	s.isLoading = false
	s.state = StateDone
	snap := s.snapshotLocked()
	s.mu.Unlock()

	logger.Debug(logger.CHAT, "Stream completed")
	s.notifyChange(snap)
}

func (s *Session) fail(err error) {
	streamErr := networkFailure(err)
	logger.Error(logger.CHAT, "Chat stream failed (%s): %v", streamErr.Kind, err)

	s.mu.Lock()
	s.replaceTail(newMessage(SenderBot, "Error: "+streamErr.Message, s.now()))
	s.isLoading = false
	s.state = StateErrored
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notifyChange(snap)
}

func (s *Session) record(ctx context.Context, prompt string) {
	if s.history == nil || s.tokens == nil {
		return
	}
	if _, ok := s.tokens.Token(ctx); !ok {
		return
	}
	if err := s.history.SaveQuery(ctx, prompt); err != nil {
		logger.Warn(logger.CHAT, "Failed to record query: %v", err)
	}
}

// notifyChange calls observers outside observerMu, so they may register more observers
func (s *Session) notifyChange(snap Snapshot) {
	s.observerMu.RLock()
	observers := append([]func(Snapshot)(nil), s.onChange...)
	s.observerMu.RUnlock()

	for _, fn := range observers {
		fn(snap)
	}
}

func (s *Session) notifyAdditional(data AdditionalData) {
	s.observerMu.RLock()
	observers := append([]func(AdditionalData)(nil), s.onAdditionalFn...)
	s.observerMu.RUnlock()

	for _, fn := range observers {
		fn(data)
	}
}
