package github

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
)

var testRepo = tracking.Repository{Owner: "ioBroker", Name: "ioBroker.foo"}

func stringPtr(s string) *string {
	return &s
}

func intPtr(i int) *int {
	return &i
}

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := NewClientWithBaseURL(server.Client(), server.URL)
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	client := NewClient(context.Background(), "test-token")
	require.NotNil(t, client)
	assert.NotNil(t, client.client)
}

func TestClientImplementsStore(t *testing.T) {
	var _ tracking.Store = (*Client)(nil)
}

func TestListOpen(t *testing.T) {
	mux := http.NewServeMux()
	var serverURL string
	mux.HandleFunc("/repos/ioBroker/ioBroker.foo/issues", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "open", r.URL.Query().Get("state"))
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/ioBroker/ioBroker.foo/issues?page=2>; rel="next"`, serverURL))
			_ = json.NewEncoder(w).Encode([]*github.Issue{
				{Number: intPtr(1), Title: stringPtr("Please consider fixing issues detected by repository checker"), State: stringPtr("open"),
					Labels: []*github.Label{{Name: stringPtr("stale")}}},
				{Number: intPtr(2), Title: stringPtr("Some bug"), State: stringPtr("open")},
			})
		case "2":
			_ = json.NewEncoder(w).Encode([]*github.Issue{
				{Number: intPtr(3), Title: stringPtr("Please consider fixing issues detected by repository checker"), State: stringPtr("open"),
					PullRequestLinks: &github.PullRequestLinks{URL: stringPtr("https://example.invalid/pr/3")}},
				{Number: intPtr(4), Title: stringPtr("[ioBroker.foo] Please consider fixing issues detected by repository checker"), State: stringPtr("open")},
			})
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	serverURL = server.URL
	client, err := NewClientWithBaseURL(server.Client(), server.URL)
	require.NoError(t, err)

	issues, err := client.ListOpen(context.Background(), testRepo, func(title string) bool {
		return title != "Some bug"
	})
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, 1, issues[0].Number)
	assert.True(t, issues[0].Open)
	assert.True(t, issues[0].HasLabel(tracking.StaleLabel))
	assert.Equal(t, 4, issues[1].Number)
}

func TestListOpenError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/ioBroker/ioBroker.foo/issues", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
	})
	client := newTestClient(t, mux)

	_, err := client.ListOpen(context.Background(), testRepo, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list issues of ioBroker/ioBroker.foo")
}

func TestGet(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/ioBroker/ioBroker.foo/issues/7", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(&github.Issue{
			Number:  intPtr(7),
			Title:   stringPtr("title"),
			Body:    stringPtr("- [ ] [E001] x"),
			State:   stringPtr("closed"),
			HTMLURL: stringPtr("https://github.com/ioBroker/ioBroker.foo/issues/7"),
		})
	})
	client := newTestClient(t, mux)

	issue, err := client.Get(context.Background(), testRepo, 7)
	require.NoError(t, err)
	assert.Equal(t, &tracking.Issue{
		Number: 7,
		Title:  "title",
		Body:   "- [ ] [E001] x",
		Open:   false,
		URL:    "https://github.com/ioBroker/ioBroker.foo/issues/7",
	}, issue)
}

func TestMutations(t *testing.T) {
	type request struct {
		method string
		path   string
		body   map[string]any
	}
	var requests []request

	record := func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body := map[string]any{}
		_ = json.Unmarshal(data, &body)
		requests = append(requests, request{method: r.Method, path: r.URL.Path, body: body})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/ioBroker/ioBroker.foo/issues", func(w http.ResponseWriter, r *http.Request) {
		record(w, r)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(&github.Issue{Number: intPtr(42)})
	})
	mux.HandleFunc("/repos/ioBroker/ioBroker.foo/issues/42", func(w http.ResponseWriter, r *http.Request) {
		record(w, r)
		_ = json.NewEncoder(w).Encode(&github.Issue{Number: intPtr(42)})
	})
	mux.HandleFunc("/repos/ioBroker/ioBroker.foo/issues/42/comments", func(w http.ResponseWriter, r *http.Request) {
		record(w, r)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(&github.IssueComment{})
	})
	client := newTestClient(t, mux)
	ctx := context.Background()

	number, err := client.Create(ctx, testRepo, "t", "b")
	require.NoError(t, err)
	assert.Equal(t, 42, number)
	require.NoError(t, client.Update(ctx, testRepo, 42, "t2", "b2"))
	require.NoError(t, client.Comment(ctx, testRepo, 42, "hello"))
	require.NoError(t, client.Close(ctx, testRepo, 42))

	require.Len(t, requests, 4)
	assert.Equal(t, http.MethodPost, requests[0].method)
	assert.Equal(t, map[string]any{"title": "t", "body": "b"}, requests[0].body)
	assert.Equal(t, http.MethodPatch, requests[1].method)
	assert.Equal(t, map[string]any{"title": "t2", "body": "b2"}, requests[1].body)
	assert.Equal(t, "/repos/ioBroker/ioBroker.foo/issues/42/comments", requests[2].path)
	assert.Equal(t, "hello", requests[2].body["body"])
	assert.Equal(t, http.MethodPatch, requests[3].method)
	assert.Equal(t, map[string]any{"state": "closed"}, requests[3].body)
}

// captureInfoLogs records the messages of Info lines logged while the test runs
func captureInfoLogs(t *testing.T) func() []string {
	t.Helper()
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(previous) })

	return func() []string {
		var messages []string
		scanner := bufio.NewScanner(&buf)
		for scanner.Scan() {
			var entry struct {
				Level string `json:"level"`
				Msg   string `json:"msg"`
			}
			require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
			if entry.Level == "INFO" {
				messages = append(messages, entry.Msg)
			}
		}
		return messages
	}
}

func TestMutationsLogOneInfoLineEach(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/ioBroker/ioBroker.foo/issues", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(&github.Issue{Number: intPtr(7)})
	})
	mux.HandleFunc("/repos/ioBroker/ioBroker.foo/issues/6", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(&github.Issue{Number: intPtr(6)})
	})
	mux.HandleFunc("/repos/ioBroker/ioBroker.foo/issues/6/comments", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(&github.IssueComment{})
	})
	mux.HandleFunc("/repos/ioBroker/ioBroker.foo/dispatches", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	client := newTestClient(t, mux)
	ctx := context.Background()
	infoLines := captureInfoLogs(t)

	// a recreate: create successor, comment on and close the old issue
	_, err := client.Create(ctx, testRepo, "t", "b")
	require.NoError(t, err)
	require.NoError(t, client.Comment(ctx, testRepo, 6, "replaced"))
	require.NoError(t, client.Close(ctx, testRepo, 6))
	require.NoError(t, client.Update(ctx, testRepo, 6, "t", "b"))
	require.NoError(t, client.Dispatch(ctx, testRepo, "check-repository", map[string]string{"url": "x"}))

	assert.Equal(t, []string{
		"Created issue",
		"Commented on issue",
		"Closed issue",
		"Updated issue",
		"Dispatched repository event",
	}, infoLines())
}

func TestDispatch(t *testing.T) {
	var got map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/ioBroker/ioBroker.repochecker/dispatches", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})
	client := newTestClient(t, mux)

	repo := tracking.Repository{Owner: "ioBroker", Name: "ioBroker.repochecker"}
	err := client.Dispatch(context.Background(), repo, "check-repository", map[string]string{"url": "https://github.com/a/b"})
	require.NoError(t, err)
	assert.Equal(t, "check-repository", got["event_type"])
	assert.Equal(t, map[string]any{"url": "https://github.com/a/b"}, got["client_payload"])
}

func TestDispatchError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/ioBroker/ioBroker.foo/dispatches", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"forbidden"}`, http.StatusForbidden)
	})
	client := newTestClient(t, mux)

	err := client.Dispatch(context.Background(), testRepo, "check-repository", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to dispatch check-repository")
}
