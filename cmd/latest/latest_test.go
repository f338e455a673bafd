package latest

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iobroker-bot-orga/check-tasks/cmd"
	"github.com/iobroker-bot-orga/check-tasks/internal/feed"
	"github.com/iobroker-bot-orga/check-tasks/internal/filter"
	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
)

func meta(owner, adapter string) string {
	return "https://raw.githubusercontent.com/" + owner + "/ioBroker." + adapter + "/master/io-package.json"
}

func testLatest() feed.Repository {
	return feed.Repository{
		"_repoInfo": {},
		"admin":     {Version: "7.0.0", Meta: meta("ioBroker", "admin")},
		"backitup":  {Version: "3.0.0", Meta: meta("simatec", "backitup")},
		"zwave2":    {Version: "3.0.0", Meta: meta("AlCalzone", "zwave2")},
		"rssfeed":   {Version: "3.0.0", Meta: meta("iobroker-community-adapters", "rssfeed")},
		"ownerless": {Version: "1.0.0", Meta: "broken"},
	}
}

func repoNames(repos []tracking.Repository) []string {
	var names []string
	for _, r := range repos {
		names = append(names, r.String())
	}
	return names
}

func mustFilter(t *testing.T, pattern string) *filter.Filter {
	t.Helper()
	f, err := filter.Compile(pattern)
	require.NoError(t, err)
	return f
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name     string
		opts     func(t *testing.T) Options
		expected []string
	}{
		{
			name: "all in name order",
			opts: func(*testing.T) Options { return Options{} },
			expected: []string{
				"ioBroker/ioBroker.admin",
				"simatec/ioBroker.backitup",
				"iobroker-community-adapters/ioBroker.rssfeed",
				"AlCalzone/ioBroker.zwave2",
			},
		},
		{
			name: "from",
			opts: func(*testing.T) Options { return Options{From: "rssfeed"} },
			expected: []string{
				"iobroker-community-adapters/ioBroker.rssfeed",
				"AlCalzone/ioBroker.zwave2",
			},
		},
		{
			name:     "unknown from selects nothing",
			opts:     func(*testing.T) Options { return Options{From: "nope"} },
			expected: nil,
		},
		{
			name:     "owner filter",
			opts:     func(t *testing.T) Options { return Options{Filter: mustFilter(t, "iobroker*/*")} },
			expected: []string{"ioBroker/ioBroker.admin", "iobroker-community-adapters/ioBroker.rssfeed"},
		},
		{
			name:     "repo filter with from",
			opts:     func(t *testing.T) Options { return Options{Filter: mustFilter(t, "*/*a*"), From: "backitup"} },
			expected: []string{"simatec/ioBroker.backitup", "AlCalzone/ioBroker.zwave2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, repoNames(Select(testLatest(), tt.opts(t))))
		})
	}
}

func TestRun(t *testing.T) {
	var checked []string
	check := func(_ context.Context, repo tracking.Repository) error {
		checked = append(checked, repo.String())
		if repo.Name == "ioBroker.backitup" {
			return errors.New("dispatch failed")
		}
		return nil
	}

	err := Run(context.Background(), &bytes.Buffer{}, testLatest(), &cmd.Config{}, Options{From: "backitup"}, check)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 check-latest operation(s) failed")
	assert.Equal(t, []string{
		"simatec/ioBroker.backitup",
		"iobroker-community-adapters/ioBroker.rssfeed",
		"AlCalzone/ioBroker.zwave2",
	}, checked)
}
