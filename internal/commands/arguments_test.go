package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
)

func TestParseRepositoryArg(t *testing.T) {
	tests := []struct {
		name     string
		arg      string
		expected tracking.Repository
		wantErr  bool
	}{
		{
			name:     "owner and repo",
			arg:      "ioBroker/ioBroker.admin",
			expected: tracking.Repository{Owner: "ioBroker", Name: "ioBroker.admin"},
		},
		{
			name:     "lower case prefix normalized",
			arg:      "mcm1957/iobroker.weblate-test",
			expected: tracking.Repository{Owner: "mcm1957", Name: "ioBroker.weblate-test"},
		},
		{
			name:     "https url",
			arg:      "https://github.com/iobroker-community-adapters/ioBroker.rssfeed",
			expected: tracking.Repository{Owner: "iobroker-community-adapters", Name: "ioBroker.rssfeed"},
		},
		{
			name:     "https url with .git and www",
			arg:      "https://www.github.com/foo/iobroker.bar.git",
			expected: tracking.Repository{Owner: "foo", Name: "ioBroker.bar"},
		},
		{
			name:     "ssh remote",
			arg:      "git@github.com:foo/ioBroker.bar.git",
			expected: tracking.Repository{Owner: "foo", Name: "ioBroker.bar"},
		},
		{
			name:     "surrounding whitespace",
			arg:      "  foo/bar ",
			expected: tracking.Repository{Owner: "foo", Name: "bar"},
		},
		{
			name:    "name only",
			arg:     "ioBroker.admin",
			wantErr: true,
		},
		{
			name:    "too many segments",
			arg:     "a/b/c",
			wantErr: true,
		},
		{
			name:    "other host",
			arg:     "https://gitlab.com/foo/bar",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := ParseRepositoryArg(tt.arg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, repo)
		})
	}
}
