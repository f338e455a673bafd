package commands

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iobroker-bot-orga/check-tasks/cmd"
	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
)

type dispatchCall struct {
	repo      tracking.Repository
	eventType string
	payload   any
}

type fakeDispatcher struct {
	calls []dispatchCall
	err   error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, repo tracking.Repository, eventType string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, dispatchCall{repo: repo, eventType: eventType, payload: payload})
	return nil
}

func TestNewCheckPayload(t *testing.T) {
	repo := tracking.Repository{Owner: "mcm1957", Name: "ioBroker.weblate-test"}
	assert.Equal(t, CheckPayload{URL: "mcm1957/ioBroker.weblate-test"}, NewCheckPayload(repo))
	assert.Equal(t, CheckPayload{URL: "mcm1957/ioBroker.weblate-test --erroronly --recheck"},
		NewCheckPayload(repo, "--erroronly", "--recheck"))
}

func TestTriggerCheck(t *testing.T) {
	repo := tracking.Repository{Owner: "foo", Name: "ioBroker.bar"}

	t.Run("dispatches to bot repository", func(t *testing.T) {
		d := &fakeDispatcher{}
		config := &cmd.Config{BotRepository: "iobroker-bot-orga/check-tasks"}

		require.NoError(t, TriggerCheck(context.Background(), d, config, repo, "--cleanup"))
		require.Len(t, d.calls, 1)
		assert.Equal(t, tracking.Repository{Owner: "iobroker-bot-orga", Name: "check-tasks"}, d.calls[0].repo)
		assert.Equal(t, cmd.EventCheckRepository, d.calls[0].eventType)
		assert.Equal(t, CheckPayload{URL: "foo/ioBroker.bar --cleanup"}, d.calls[0].payload)
	})

	t.Run("invalid bot repository", func(t *testing.T) {
		d := &fakeDispatcher{}
		err := TriggerCheck(context.Background(), d, &cmd.Config{BotRepository: "nope"}, repo)
		require.Error(t, err)
		assert.Empty(t, d.calls)
	})

	t.Run("dispatch failure", func(t *testing.T) {
		d := &fakeDispatcher{err: errors.New("forbidden")}
		err := TriggerCheck(context.Background(), d, &cmd.Config{BotRepository: "a/b"}, repo)
		assert.EqualError(t, err, "forbidden")
	})
}

func TestDryRunDispatcher(t *testing.T) {
	var out bytes.Buffer
	d := &dryRunDispatcher{out: &out}

	err := d.Dispatch(context.Background(), tracking.Repository{Owner: "a", Name: "b"}, "check-repository", CheckPayload{URL: "x/y"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "DISPATCH")
	assert.Contains(t, out.String(), "a/b")
	assert.Contains(t, out.String(), "x/y")
}
