package rest_test

import (
	"context"
	"net/http"
	"sync"

	"github.com/fivetwenty-io/restkit/pkg/rest"
)

// fakeTransport records requests and answers with a fixed response or with
// respond when set.
type fakeTransport struct {
	mu       sync.Mutex
	requests []*rest.Request
	status   int
	body     string
	err      error
	respond  func(req *rest.Request) (*rest.Response, error)
}

func newFakeTransport(status int, body string) *fakeTransport {
	return &fakeTransport{status: status, body: body}
}

func (f *fakeTransport) Do(ctx context.Context, req *rest.Request) (*rest.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	respond := f.respond
	f.mu.Unlock()

	if respond != nil {
		return respond(req)
	}

	if f.err != nil {
		return nil, f.err
	}

	return &rest.Response{
		StatusCode: f.status,
		StatusText: http.StatusText(f.status),
		Body:       []byte(f.body),
	}, nil
}

func (f *fakeTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.requests)
}

func (f *fakeTransport) last() *rest.Request {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.requests) == 0 {
		return nil
	}

	return f.requests[len(f.requests)-1]
}

// recordingLogger captures log messages.
type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) Debug(msg string, _ map[string]interface{}) { l.record(msg) }
func (l *recordingLogger) Info(msg string, _ map[string]interface{})  { l.record(msg) }
func (l *recordingLogger) Warn(msg string, _ map[string]interface{})  { l.record(msg) }
func (l *recordingLogger) Error(msg string, _ map[string]interface{}) { l.record(msg) }

func (l *recordingLogger) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.messages...)
}
