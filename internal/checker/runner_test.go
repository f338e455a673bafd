package checker

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iobroker-bot-orga/check-tasks/internal/decision"
	"github.com/iobroker-bot-orga/check-tasks/internal/finding"
	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
	"github.com/iobroker-bot-orga/check-tasks/internal/tracking/trackingtest"
)

type staticSource struct {
	errs     []string
	warnings []string
	err      error
}

func (s *staticSource) Run(_ context.Context, repoURL string) (*Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return Normalize(repoURL, s.errs, s.warnings, "sha", "1.0.0"), nil
}

type memoryRecorder struct {
	recorded map[string][]string
}

func (m *memoryRecorder) Record(repo tracking.Repository, keys []string) error {
	if m.recorded == nil {
		m.recorded = make(map[string][]string)
	}
	m.recorded[repo.String()] = keys
	return nil
}

var fooRepo = tracking.Repository{Owner: "someone", Name: "ioBroker.foo"}

func TestRunnerCreatesAndUpdates(t *testing.T) {
	store := trackingtest.NewStore()
	recorder := &memoryRecorder{}
	source := &staticSource{errs: []string{"[E100] see README.md"}, warnings: []string{"[W200] warn"}}
	runner := NewRunner(source, decision.NewEngine(store), recorder)
	ctx := context.Background()

	out, err := runner.Check(ctx, fooRepo, Options{})
	require.NoError(t, err)
	assert.Equal(t, decision.ActionCreate, out.Decision.Action)

	issue, ok := store.Issue(fooRepo, out.Issue)
	require.True(t, ok)
	assert.Equal(t, finding.CheckerTitle, issue.Title)
	assert.Contains(t, issue.Body, "[README.md](https://github.com/someone/ioBroker.foo/blob/master/README.md)")
	assert.Len(t, recorder.recorded["someone/ioBroker.foo"], 2)

	// decorated keys are stable across runs
	mutations := store.Mutations()
	out, err = runner.Check(ctx, fooRepo, Options{})
	require.NoError(t, err)
	assert.Equal(t, decision.ActionNone, out.Decision.Action)
	assert.Equal(t, mutations, store.Mutations())

	source.warnings = nil
	out, err = runner.Check(ctx, fooRepo, Options{})
	require.NoError(t, err)
	assert.Equal(t, decision.ActionUpdate, out.Decision.Action)
	comments := store.Comments(fooRepo, out.Issue)
	require.Len(t, comments, 1)
	assert.Contains(t, comments[0], "[W200] warn")
}

func TestRunnerFatalCheck(t *testing.T) {
	store := trackingtest.NewStore()
	store.Seed(fooRepo, tracking.Issue{Number: 1, Title: finding.CheckerTitle, Body: finding.RenderLine("[E100] x", false), Open: true})
	recorder := &memoryRecorder{}
	runner := NewRunner(&staticSource{errs: []string{"[E000] repository not reachable"}}, decision.NewEngine(store), recorder)

	out, err := runner.Check(context.Background(), fooRepo, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFatalCheck)
	assert.True(t, out.Decision.Fatal)
	assert.Zero(t, store.Mutations())
	assert.Empty(t, recorder.recorded)
}

func TestRunnerSourceFailure(t *testing.T) {
	store := trackingtest.NewStore()
	runner := NewRunner(&staticSource{err: errors.New("timeout")}, decision.NewEngine(store), nil)

	_, err := runner.Check(context.Background(), fooRepo, Options{})
	require.Error(t, err)
	assert.Zero(t, store.Mutations())
}

func TestRunnerRejectsRecheckWithRecreate(t *testing.T) {
	runner := NewRunner(&staticSource{}, decision.NewEngine(trackingtest.NewStore()), nil)
	_, err := runner.Check(context.Background(), fooRepo, Options{Recheck: true, Recreate: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be used together")
}

func TestRunnerRecreate(t *testing.T) {
	store := trackingtest.NewStore()
	store.Seed(fooRepo, tracking.Issue{Number: 4, Title: finding.CheckerTitle, Body: finding.RenderLine("[E100] x", true), Open: true})
	runner := NewRunner(&staticSource{errs: []string{"[E100] x"}}, decision.NewEngine(store), nil)

	out, err := runner.Check(context.Background(), fooRepo, Options{Recreate: true})
	require.NoError(t, err)
	assert.Equal(t, decision.ActionRecreate, out.Decision.Action)
	assert.Equal(t, []int{5}, store.OpenIssues(fooRepo))
	assert.Contains(t, store.Comments(fooRepo, 4)[0], "Follow up issue #5")
}

func TestRunnerDryRunRecreateNamesPendingIssue(t *testing.T) {
	store := trackingtest.NewStore()
	store.Seed(fooRepo, tracking.Issue{Number: 4, Title: finding.CheckerTitle, Body: finding.RenderLine("[E100] x", false), Open: true})
	var out bytes.Buffer
	runner := NewRunner(&staticSource{errs: []string{"[E100] x"}}, decision.NewEngine(tracking.NewDryRunStore(store, &out)), nil)

	_, err := runner.Check(context.Background(), fooRepo, Options{Recreate: true})
	require.NoError(t, err)
	assert.Zero(t, store.Mutations())
	assert.Contains(t, out.String(), "Follow up issue (new issue) has been created.")
	assert.NotContains(t, out.String(), "#0")
}
