package checker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iobroker-bot-orga/check-tasks/internal/fetch"
)

func TestNormalize(t *testing.T) {
	r := Normalize("https://github.com/someone/ioBroker.foo",
		[]string{"[E200] b", "[E100] a\n", ""},
		[]string{"[W300] w", "[S400] s", "  "},
		"abc123", "3.0.0")

	assert.Equal(t, []string{"[E100] a", "[E200] b"}, r.Errors)
	assert.Equal(t, []string{"[W300] w"}, r.Warnings)
	assert.Equal(t, []string{"[S400] s"}, r.Suggestions)
	assert.False(t, r.Fatal)
	assert.Equal(t, []string{"[E100] a", "[E200] b", "[W300] w", "[S400] s"}, r.Keys())
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		errs     []string
		expected bool
	}{
		{"no errors", nil, false},
		{"regular error", []string{"[E100] x"}, false},
		{"repository unreachable", []string{"[E000] cannot access repository"}, true},
		{"internal failure", []string{"[E100] x", "[E999] crashed"}, true},
		{"code in message only", []string{"[E100] see [E000]"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsFatal(tt.errs))
		})
	}
}

func TestHTTPSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://github.com/someone/ioBroker.foo", r.URL.Query().Get("url"))
		_, _ = w.Write([]byte(`{"errors":["[E999] crashed"],"warnings":["[S001] hint"],"lastCommitSha":"abc","version":"4.1.0"}`))
	}))
	defer server.Close()

	src := NewHTTPSource(fetch.NewGetter(time.Second, time.Second), server.URL+"/check")
	r, err := src.Run(context.Background(), "https://github.com/someone/ioBroker.foo")
	require.NoError(t, err)
	assert.True(t, r.Fatal)
	assert.Equal(t, []string{"[S001] hint"}, r.Suggestions)
	assert.Equal(t, "abc", r.CommitSHA)
	assert.Equal(t, "4.1.0", r.Version)
}

func TestHTTPSourceInvalidBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer server.Close()

	_, err := NewHTTPSource(fetch.NewGetter(time.Second, time.Second), server.URL).Run(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse checker output")
}

func TestCommandSource(t *testing.T) {
	src := NewCommandSource([]string{"sh", "-c", `echo '{"errors":[],"warnings":["[W001] from command"]}'`})
	r, err := src.Run(context.Background(), "https://github.com/someone/ioBroker.foo")
	require.NoError(t, err)
	assert.Equal(t, []string{"[W001] from command"}, r.Warnings)

	_, err = NewCommandSource(nil).Run(context.Background(), "x")
	assert.Error(t, err)

	_, err = NewCommandSource([]string{"sh", "-c", "exit 3"}).Run(context.Background(), "x")
	assert.Error(t, err)
}

func TestDecorate(t *testing.T) {
	link := "https://github.com/someone/ioBroker.foo"
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "file names",
			text:     "[E001] missing in README.md and package.json",
			expected: "[E001] missing in [README.md](" + link + "/blob/master/README.md) and [package.json](" + link + "/blob/master/package.json)",
		},
		{
			name:     "io-package is not linked twice",
			text:     "[E002] check io-package.json",
			expected: "[E002] check [io-package.json](" + link + "/blob/master/io-package.json)",
		},
		{
			name:     "npm owner command",
			text:     `[E003] run "npm owner add bluefox iobroker.foo"`,
			expected: "[E003] run `npm owner add bluefox iobroker.foo`",
		},
		{
			name:     "npm mention",
			text:     "[W004] not published on NPM",
			expected: "[W004] not published on [NPM](https://www.npmjs.com/package/iobroker.foo)",
		},
		{
			name:     "plain text untouched",
			text:     "[S005] nothing to decorate",
			expected: "[S005] nothing to decorate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Decorate(tt.text, "someone", "ioBroker.foo"))
		})
	}
}

func TestResultDecorateUsesRepoURL(t *testing.T) {
	r := Normalize("https://github.com/someone/iobroker.foo", []string{"[E001] see README.md"}, nil, "", "")
	r.Decorate()
	assert.Contains(t, r.Errors[0], "https://github.com/someone/ioBroker.foo/blob/master/README.md")
}
