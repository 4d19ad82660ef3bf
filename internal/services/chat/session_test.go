package chat

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/reviewly/reviewly/internal/infrastructure/reviewly"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// chunkBody yields one scripted chunk per Read
type chunkBody struct {
	chunks [][]byte
	closed bool
}

func (b *chunkBody) Read(p []byte) (int, error) {
	if len(b.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, b.chunks[0])
	b.chunks[0] = b.chunks[0][n:]
	if len(b.chunks[0]) == 0 {
		b.chunks = b.chunks[1:]
	}
	return n, nil
}

func (b *chunkBody) Close() error {
	b.closed = true
	return nil
}

type fakeTransport struct {
	mu       sync.Mutex
	chunks   []string
	err      error
	body     io.ReadCloser
	requests []Request
}

func (f *fakeTransport) Open(ctx context.Context, req Request) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.body != nil {
		return f.body, nil
	}
	body := &chunkBody{}
	for _, c := range f.chunks {
		body.chunks = append(body.chunks, []byte(c))
	}
	return body, nil
}

func (f *fakeTransport) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}

type msg struct {
	Sender   Sender
	Text     string
	IsStatus bool
}

func simplify(messages []ChatMessage) []msg {
	out := make([]msg, 0, len(messages))
	for _, m := range messages {
		out = append(out, msg{Sender: m.Sender, Text: m.Text, IsStatus: m.IsStatus})
	}
	return out
}

func TestSubmitScenarios(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   []msg
		state  State
	}{
		{
			name:   "plain text chunks are concatenated",
			chunks: []string{"Hi", " there", "!"},
			want:   []msg{{SenderUser, "hello", false}, {SenderBot, "Hi there!", false}},
			state:  StateDone,
		},
		{
			name:   "status is dropped once text resumes",
			chunks: []string{`{"type":"status","message":"Searching…"}`, "Found it."},
			want:   []msg{{SenderUser, "hello", false}, {SenderBot, "Found it.", false}},
			state:  StateDone,
		},
		{
			name:   "status replaces a previous status",
			chunks: []string{`{"type":"status","message":"Searching…"}`, `{"type":"status","message":"Ranking…"}`},
			want:   []msg{{SenderUser, "hello", false}, {SenderBot, "Ranking…", true}},
			state:  StateDone,
		},
		{
			name:   "json without a known type is text",
			chunks: []string{`{"error":"boom"}`, ` and `, `{"type":"other"}`},
			want:   []msg{{SenderUser, "hello", false}, {SenderBot, `{"error":"boom"} and {"type":"other"}`, false}},
			state:  StateDone,
		},
		{
			name:   "no chunks leaves an empty answer",
			chunks: nil,
			want:   []msg{{SenderUser, "hello", false}, {SenderBot, "", false}},
			state:  StateDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := NewSession(&fakeTransport{chunks: tt.chunks})

			require.NoError(t, session.Submit(context.Background(), "hello", ""))

			if diff := cmp.Diff(tt.want, simplify(session.Messages())); diff != "" {
				t.Errorf("messages mismatch (-want +got):\n%s", diff)
			}
			assert.False(t, session.IsLoading())
			assert.Equal(t, tt.state, session.State())
		})
	}
}

func TestPlainTextConcatenationPreservesOrder(t *testing.T) {
	chunks := []string{"a", "b", "{", "not json}", "ñ", " ", "42", "[1,2]", "null"}
	session := NewSession(&fakeTransport{chunks: chunks})

	require.NoError(t, session.Submit(context.Background(), "q", ""))

	messages := session.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, strings.Join(chunks, ""), messages[1].Text)
}

func TestStatusStopsLoading(t *testing.T) {
	session := NewSession(&fakeTransport{chunks: []string{"partial", `{"type":"status","message":"M"}`, "rest"}})

	var snapshots []Snapshot
	session.OnChange(func(s Snapshot) {
		snapshots = append(snapshots, s)
	})

	require.NoError(t, session.Submit(context.Background(), "hello", ""))

	// submit, three chunks, completion
	require.Len(t, snapshots, 5)

	assert.True(t, snapshots[0].IsLoading)
	assert.Equal(t, StateAwaiting, snapshots[0].State)

	afterStatus := snapshots[2]
	tail := afterStatus.Messages[len(afterStatus.Messages)-1]
	assert.True(t, tail.IsStatus)
	assert.Equal(t, "M", tail.Text)
	assert.False(t, afterStatus.IsLoading)
	assert.Equal(t, StateStreamingWithStatus, afterStatus.State)
	assert.Len(t, afterStatus.Messages, 2)

	afterText := snapshots[3]
	require.Len(t, afterText.Messages, 2)
	tail = afterText.Messages[1]
	assert.False(t, tail.IsStatus)
	assert.Equal(t, "rest", tail.Text)
	assert.Equal(t, StateStreaming, afterText.State)

	assert.Equal(t, StateDone, snapshots[4].State)
}

func TestAdditionalData(t *testing.T) {
	products := `{"type":"additional_data","data":{"products":[{"product_id":1,"title":"A"},{"product_id":2,"title":"B"}]}}`
	reviews := `{"type":"additional_data","data":{"review_ids":[10,11]}}`

	tests := []struct {
		name        string
		chunks      []string
		wantEvents  []AdditionalData
		wantReviews []int
		wantIDs     []int
	}{
		{
			name:       "products fire once",
			chunks:     []string{products, "text", products},
			wantEvents: []AdditionalData{{Products: []reviewly.Product{{ProductID: 1, Title: "A"}, {ProductID: 2, Title: "B"}}}},
			wantIDs:    []int{1, 2},
		},
		{
			name:        "reviews fire when no products",
			chunks:      []string{reviews, reviews},
			wantEvents:  []AdditionalData{{Reviews: []int{10, 11}}},
			wantReviews: []int{10, 11},
		},
		{
			name:   "products win over reviews in one fragment",
			chunks: []string{`{"type":"additional_data","data":{"review_ids":[5],"products":[{"product_id":9}]}}`},
			wantEvents: []AdditionalData{
				{Products: []reviewly.Product{{ProductID: 9}}},
			},
			wantReviews: []int{5},
			wantIDs:     []int{9},
		},
		{
			name:        "reviews after products still fire",
			chunks:      []string{products, reviews},
			wantEvents:  []AdditionalData{{Products: []reviewly.Product{{ProductID: 1, Title: "A"}, {ProductID: 2, Title: "B"}}}, {Reviews: []int{10, 11}}},
			wantReviews: []int{10, 11},
			wantIDs:     []int{1, 2},
		},
		{
			name:       "empty payload fires nothing",
			chunks:     []string{`{"type":"additional_data","data":{}}`, `{"type":"additional_data"}`},
			wantEvents: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := NewSession(&fakeTransport{chunks: tt.chunks})

			var events []AdditionalData
			session.OnAdditionalData(func(d AdditionalData) {
				events = append(events, d)
			})

			require.NoError(t, session.Submit(context.Background(), "hello", ""))

			if diff := cmp.Diff(tt.wantEvents, events, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}

			tail := session.Messages()[1]
			assert.ElementsMatch(t, tt.wantReviews, tail.ReviewIDs)
			var ids []int
			for _, p := range tail.Products {
				ids = append(ids, p.ProductID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestAdditionalDataLeavesTextAlone(t *testing.T) {
	session := NewSession(&fakeTransport{chunks: []string{"Top pick", `{"type":"additional_data","data":{"review_ids":[3]}}`, " here"}})

	require.NoError(t, session.Submit(context.Background(), "hello", ""))

	tail := session.Messages()[1]
	assert.Equal(t, "Top pick here", tail.Text)
	assert.Equal(t, []int{3}, tail.ReviewIDs)
}

func TestAdditionalDataSurvivesStatus(t *testing.T) {
	session := NewSession(&fakeTransport{chunks: []string{
		`{"type":"additional_data","data":{"review_ids":[7]}}`,
		`{"type":"status","message":"Reading reviews"}`,
		"Answer",
	}})

	require.NoError(t, session.Submit(context.Background(), "hello", ""))

	messages := session.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "Answer", messages[1].Text)
	assert.Equal(t, []int{7}, messages[1].ReviewIDs)
}

func TestObserversMayRegisterObservers(t *testing.T) {
	session := NewSession(&fakeTransport{chunks: []string{
		`{"type":"additional_data","data":{"review_ids":[5]}}`,
		"answer",
	}})

	var once sync.Once
	var late, lateData int
	session.OnChange(func(Snapshot) {
		once.Do(func() {
			session.OnChange(func(Snapshot) { late++ })
			session.OnAdditionalData(func(AdditionalData) { lateData++ })
		})
	})

	done, err := session.Start(context.Background(), "hello", "")
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not finish")
	}

	assert.Positive(t, late)
	assert.Equal(t, 1, lateData)
}

func TestSubmitRejectsBlankPrompts(t *testing.T) {
	for _, prompt := range []string{"", "   ", "\n\t"} {
		transport := &fakeTransport{chunks: []string{"x"}}
		session := NewSession(transport)

		err := session.Submit(context.Background(), prompt, "")

		assert.ErrorIs(t, err, ErrEmptyPrompt)
		assert.Empty(t, session.Messages())
		assert.Empty(t, transport.Requests())
		assert.Equal(t, StateIdle, session.State())
	}
}

func TestSubmitWhileStreamingIsBusy(t *testing.T) {
	pr, pw := io.Pipe()
	session := NewSession(&fakeTransport{body: pr})

	done, err := session.Start(context.Background(), "first", "")
	require.NoError(t, err)

	_, err = pw.Write([]byte(`{"type":"status","message":"Searching"}`))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return session.State() == StateStreamingWithStatus
	}, time.Second, time.Millisecond)
	assert.False(t, session.IsLoading())

	_, err = session.Start(context.Background(), "second", "")
	assert.ErrorIs(t, err, ErrBusy)

	require.NoError(t, pw.Close())
	<-done

	assert.Len(t, session.Messages(), 2)
	require.NoError(t, session.Submit(context.Background(), "third", ""))
	assert.Len(t, session.Messages(), 4)
}

func TestSubmitPassesPromptAndContext(t *testing.T) {
	transport := &fakeTransport{}
	session := NewSession(transport)

	require.NoError(t, session.Submit(context.Background(), "  is it loud?  ", "B00X1"))

	assert.Equal(t, []Request{{Prompt: "is it loud?", ProductID: "B00X1"}}, transport.Requests())
	assert.Equal(t, "is it loud?", session.Messages()[0].Text)
}

func TestTransportErrorsBecomeMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unavailable", unavailable(503, "Service Unavailable"), "Error: Error en la respuesta: 503 Service Unavailable"},
		{"network", errors.New("connection refused"), "Error: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := NewSession(&fakeTransport{err: tt.err})

			require.NoError(t, session.Submit(context.Background(), "hello", ""))

			want := []msg{{SenderUser, "hello", false}, {SenderBot, tt.want, false}}
			if diff := cmp.Diff(want, simplify(session.Messages())); diff != "" {
				t.Errorf("messages mismatch (-want +got):\n%s", diff)
			}
			assert.False(t, session.IsLoading())
			assert.Equal(t, StateErrored, session.State())
		})
	}
}

type failingBody struct {
	chunkBody
	err error
}

func (b *failingBody) Read(p []byte) (int, error) {
	if len(b.chunks) == 0 {
		return 0, b.err
	}
	return b.chunkBody.Read(p)
}

func TestReadErrorReplacesPartialAnswer(t *testing.T) {
	body := &failingBody{chunkBody: chunkBody{chunks: [][]byte{[]byte("Hal")}}, err: errors.New("connection reset")}
	session := NewSession(&fakeTransport{body: body})

	require.NoError(t, session.Submit(context.Background(), "hello", ""))

	messages := session.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "Error: connection reset", messages[1].Text)
	assert.True(t, body.closed)
}

func TestIdleTimeout(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	session := NewSession(&fakeTransport{body: pr}, WithIdleTimeout(20*time.Millisecond))

	done, err := session.Start(context.Background(), "hello", "")
	require.NoError(t, err)

	go func() {
		<-time.After(50 * time.Millisecond)
		pw.CloseWithError(context.Canceled)
	}()
	<-done

	messages := session.Messages()
	assert.Equal(t, StateErrored, session.State())
	assert.Contains(t, messages[1].Text, "Error: no data received for 20ms")
}

func TestGreeting(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 30, 15, 0, time.UTC)
	session := NewSession(&fakeTransport{chunks: []string{"ok"}}, WithGreeting(DefaultGreeting), WithClock(func() time.Time { return now }))

	messages := session.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, SenderBot, messages[0].Sender)
	assert.Equal(t, DefaultGreeting, messages[0].Text)
	assert.Equal(t, "09:30:15", messages[0].TimeLabel())

	require.NoError(t, session.Submit(context.Background(), "hello", ""))
	assert.Len(t, session.Messages(), 3)
}

func TestMessageIDsAreUnique(t *testing.T) {
	session := NewSession(&fakeTransport{chunks: []string{`{"type":"status","message":"s"}`, "t"}})
	require.NoError(t, session.Submit(context.Background(), "a", ""))
	require.NoError(t, session.Submit(context.Background(), "b", ""))

	seen := map[string]bool{}
	for _, m := range session.Messages() {
		assert.NotEmpty(t, m.ID)
		assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
	}
}

type recorder struct {
	queries []string
	err     error
}

func (r *recorder) SaveQuery(ctx context.Context, q string) error {
	r.queries = append(r.queries, q)
	return r.err
}

type tokens string

func (t tokens) Token(ctx context.Context) (string, bool) {
	return string(t), t != ""
}

func TestHistory(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		transport *fakeTransport
		want      []string
	}{
		{"logged in", "jwt", &fakeTransport{chunks: []string{"a"}}, []string{"hello"}},
		{"logged out", "", &fakeTransport{chunks: []string{"a"}}, nil},
		{"failed stream", "jwt", &fakeTransport{err: errors.New("down")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{err: errors.New("ignored")}
			session := NewSession(tt.transport, WithHistory(rec, tokens(tt.token)))

			require.NoError(t, session.Submit(context.Background(), "hello", ""))
			assert.Equal(t, tt.want, rec.queries)
		})
	}
}

func TestHTTPTransportScenarioC(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	session := NewSession(NewHTTPTransportWithClient(server.URL, "/chat/query", nil, server.Client()))

	require.NoError(t, session.Submit(context.Background(), "hello", ""))

	messages := session.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "Error: Error en la respuesta: 500 Internal Server Error", messages[1].Text)
	assert.False(t, session.IsLoading())
	assert.Equal(t, StateErrored, session.State())
}
