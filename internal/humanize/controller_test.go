package humanize

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/humanize-golang/internal/metrics"
	"github.com/01moynul/humanize-golang/internal/models"
)

const acctID int64 = 7

type harness struct {
	rec      *recorder
	provider *fakeProvider
	ledger   *fakeLedger
	projects *fakeProjects
	sleeps   *sleepRecorder
	ctrl     *Controller
}

func newHarness(t *testing.T, credits int, live bool) *harness {
	t.Helper()
	rec := &recorder{}
	h := &harness{
		rec:      rec,
		provider: &fakeProvider{rec: rec, jobID: "abc", output: "humanized output"},
		ledger:   newFakeLedger(rec, acctID, credits, "basic"),
		projects: &fakeProjects{rec: rec},
		sleeps:   &sleepRecorder{},
	}
	policy := DefaultPollPolicy()
	policy.Sleep = h.sleeps.sleep
	h.ctrl = NewController(
		Config{LiveMode: live, HasCredentials: true, PollPolicy: policy},
		Deps{
			Provider:  h.provider,
			Simulator: &Simulator{Delay: DefaultSimulateDelay, Sleep: h.sleeps.sleep},
			Ledger:    h.ledger,
			Projects:  h.projects,
			Plans: fakePlans{
				"free":  {Slug: "free", CharLimit: 300},
				"basic": {Slug: "basic", CharLimit: 0},
			},
			Metrics: metrics.New(),
		},
	)
	return h
}

func (h *harness) run(req Request) (*Result, error) {
	if req.AccountID == 0 {
		req.AccountID = acctID
	}
	if req.SessionID == "" {
		req.SessionID = "session-1"
	}
	return h.ctrl.Run(context.Background(), req)
}

func TestRunLiveSuccess(t *testing.T) {
	h := newHarness(t, 10, true)
	h.provider.readyAt = 2

	res, err := h.run(Request{Title: "Essay", Text: text(250)})

	require.NoError(t, err)
	assert.Equal(t, "humanized output", res.Output)
	assert.Equal(t, 2, res.CreditsUsed)
	assert.Equal(t, ModeLive, res.Mode)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, 8, res.Balance)
	assert.Equal(t, Succeeded, res.State)
	assert.Empty(t, res.Warnings())

	submits, docs := h.provider.counts()
	assert.Equal(t, 1, submits)
	assert.Equal(t, 2, docs)
	assert.Equal(t, []int{2}, h.ledger.decrementCalls)
	assert.Equal(t, 8, h.ledger.balance(acctID))

	require.Equal(t, 1, h.projects.count())
	p := h.projects.saved[0]
	assert.Equal(t, 2, p.CreditsUsed)
	assert.Equal(t, "Essay", p.Title)
	assert.Equal(t, "essay", p.Slug)
	assert.Equal(t, text(250), p.InputText)
	assert.Equal(t, "humanized output", p.OutputText)
	assert.Equal(t, acctID, p.UserID)
	assert.Same(t, p, res.Project)

	assert.False(t, h.ctrl.InFlight("session-1"))
	assert.Equal(t, Idle, h.ctrl.State("session-1"))
}

func TestRunDebitsBeforePersisting(t *testing.T) {
	h := newHarness(t, 10, true)
	h.provider.readyAt = 1

	_, err := h.run(Request{Text: text(120)})
	require.NoError(t, err)

	assert.Equal(t, []string{"account", "submit", "document", "decrement", "persist"}, h.rec.list())
}

func TestRunSimulated(t *testing.T) {
	h := newHarness(t, 10, false)

	res, err := h.run(Request{Text: sampleProse})

	require.NoError(t, err)
	assert.Equal(t, ModeSimulated, res.Mode)
	assert.Equal(t, Transform(sampleProse), res.Output)
	assert.Equal(t, 2, res.CreditsUsed) // 209 characters
	assert.Equal(t, []time.Duration{DefaultSimulateDelay}, h.sleeps.calls())
	assert.Equal(t, DefaultTitle, h.projects.saved[0].Title)
	assert.Equal(t, "simulated", h.projects.saved[0].Mode)

	submits, _ := h.provider.counts()
	assert.Zero(t, submits)
	assert.Equal(t, []string{"account", "decrement", "persist"}, h.rec.list())
}

func TestRunRequestModeOverridesDefault(t *testing.T) {
	h := newHarness(t, 10, false)
	h.provider.readyAt = 1

	res, err := h.run(Request{Text: text(100), Mode: ModeLive})
	require.NoError(t, err)
	assert.Equal(t, ModeLive, res.Mode)

	h.ctrl.SetLiveMode("session-1", true)
	assert.True(t, h.ctrl.LiveMode("session-1"))
	res, err = h.run(Request{Text: text(100)})
	require.NoError(t, err)
	assert.Equal(t, ModeLive, res.Mode)

	res, err = h.run(Request{Text: text(100), Mode: ModeSimulated})
	require.NoError(t, err)
	assert.Equal(t, ModeSimulated, res.Mode)
}

func TestRunWithoutCredentialsIsSimulated(t *testing.T) {
	ledger := newFakeLedger(nil, acctID, 10, "")
	projects := &fakeProjects{}
	ctrl := NewController(Config{LiveMode: true, HasCredentials: false}, Deps{
		Simulator: &Simulator{},
		Ledger:    ledger,
		Projects:  projects,
	})

	res, err := ctrl.Run(context.Background(), Request{AccountID: acctID, Text: text(100), Mode: ModeLive})

	require.NoError(t, err)
	assert.Equal(t, ModeSimulated, res.Mode)
	assert.False(t, ctrl.LiveMode("account:7"))
	assert.False(t, ctrl.DefaultLiveMode())
}

func TestRunShortInputTouchesNothing(t *testing.T) {
	h := newHarness(t, 10, true)

	for _, in := range []string{"", "   ", text(49), "  " + text(30) + "  "} {
		_, err := h.run(Request{Text: in})
		require.ErrorIs(t, err, ErrValidation)
	}

	assert.Empty(t, h.rec.list(), "no ledger or provider call before validation")
	assert.False(t, h.ctrl.InFlight("session-1"))
}

func TestModeOverrideIsPerSession(t *testing.T) {
	h := newHarness(t, 10, true)
	h.provider.readyAt = 1

	h.ctrl.SetLiveMode("alice", false)
	assert.False(t, h.ctrl.LiveMode("alice"))
	assert.True(t, h.ctrl.LiveMode("bob"))
	assert.True(t, h.ctrl.DefaultLiveMode())

	res, err := h.run(Request{SessionID: "bob", Text: text(100)})
	require.NoError(t, err)
	assert.Equal(t, ModeLive, res.Mode)

	res, err = h.run(Request{SessionID: "alice", Text: text(100)})
	require.NoError(t, err)
	assert.Equal(t, ModeSimulated, res.Mode)
}

func TestSweepModesDropsOldOverrides(t *testing.T) {
	h := newHarness(t, 10, true)
	start := time.Now()
	h.ctrl.now = func() time.Time { return start }

	h.ctrl.SetLiveMode("alice", false)
	assert.Zero(t, h.ctrl.SweepModes(start.Add(-time.Minute)))
	assert.Equal(t, 1, h.ctrl.SweepModes(start.Add(time.Minute)))
	assert.True(t, h.ctrl.LiveMode("alice"))
}

func TestRunZeroBalanceIsFreeDemo(t *testing.T) {
	h := newHarness(t, 0, true)

	res, err := h.run(Request{Text: sampleProse, Mode: ModeLive})

	require.NoError(t, err)
	assert.True(t, res.Demo)
	assert.Equal(t, ModeSimulated, res.Mode)
	assert.Equal(t, Transform(sampleProse), res.Output)
	assert.Zero(t, res.CreditsUsed)
	assert.Zero(t, res.Balance)
	assert.Nil(t, res.Project)

	submits, _ := h.provider.counts()
	assert.Zero(t, submits, "demo runs never reach the provider")
	assert.Empty(t, h.ledger.decrementCalls)
	assert.Zero(t, h.projects.count())
	assert.Equal(t, []string{"account"}, h.rec.list())
}

func TestRunTooLongForZeroBalance(t *testing.T) {
	h := newHarness(t, 0, true)

	_, err := h.run(Request{Text: text(301)})

	require.ErrorIs(t, err, ErrTooLong)
	submits, _ := h.provider.counts()
	assert.Zero(t, submits)
	assert.Empty(t, h.ledger.decrementCalls)
}

func TestRunTooLongForPlanLimit(t *testing.T) {
	h := newHarness(t, 10, true)
	h.ledger.accounts[acctID] = models.Account{UserID: acctID, Credits: 10, Plan: "free"}

	_, err := h.run(Request{Text: text(400)})
	require.ErrorIs(t, err, ErrTooLong)

	h.provider.readyAt = 1
	res, err := h.run(Request{Text: text(400), Truncate: true})
	require.NoError(t, err)
	assert.Equal(t, 3, res.CreditsUsed)
	assert.Equal(t, text(300), h.provider.lastText)
	assert.Equal(t, text(300), h.projects.saved[0].InputText)
}

func TestRunInsufficientCredits(t *testing.T) {
	h := newHarness(t, 1, true)

	_, err := h.run(Request{Text: text(250)})

	require.ErrorIs(t, err, ErrInsufficientCredits)
	assert.Equal(t, CodeInsufficientCredits, Classify(err))
	assert.Empty(t, h.ledger.decrementCalls)
	assert.Zero(t, h.projects.count())
	submits, _ := h.provider.counts()
	assert.Zero(t, submits)
	assert.Equal(t, 1, h.ledger.balance(acctID))
}

func TestRunUpstreamInsufficientCredits(t *testing.T) {
	h := newHarness(t, 10, true)
	h.provider.submitErr = fmt.Errorf("%w: provider quota exhausted", ErrInsufficientCredits)

	_, err := h.run(Request{Text: text(250)})

	require.ErrorIs(t, err, ErrInsufficientCredits)
	_, docs := h.provider.counts()
	assert.Zero(t, docs, "no polling after a terminal submission error")
	assert.Empty(t, h.ledger.decrementCalls)
}

func TestRunTransportFailure(t *testing.T) {
	h := newHarness(t, 10, true)
	h.provider.submitErr = fmt.Errorf("%w: connection refused", ErrTransport)

	_, err := h.run(Request{Text: text(250)})

	require.ErrorIs(t, err, ErrTransport)
	submits, docs := h.provider.counts()
	assert.Equal(t, 1, submits, "exactly one submission attempt")
	assert.Zero(t, docs)
	assert.Empty(t, h.ledger.decrementCalls)
	assert.Zero(t, h.projects.count())
	assert.False(t, h.ctrl.InFlight("session-1"))
}

func TestRunTimedOut(t *testing.T) {
	h := newHarness(t, 10, true)

	_, err := h.run(Request{Text: text(250)})

	require.ErrorIs(t, err, ErrTimedOut)
	_, docs := h.provider.counts()
	assert.Equal(t, 10, docs)
	assert.Len(t, h.sleeps.calls(), 9)
	assert.Empty(t, h.ledger.decrementCalls)
	assert.Zero(t, h.projects.count())
	assert.False(t, h.ctrl.InFlight("session-1"))
	assert.Equal(t, Idle, h.ctrl.State("session-1"))
}

func TestRunLedgerFailureIsAWarning(t *testing.T) {
	h := newHarness(t, 10, true)
	h.provider.readyAt = 1
	h.ledger.decrementErr = errors.New("procedure failed")

	res, err := h.run(Request{Text: text(250)})

	require.NoError(t, err)
	assert.Equal(t, "humanized output", res.Output)
	require.ErrorIs(t, res.LedgerWarning, ErrLedgerUpdate)
	assert.Equal(t, CodeLedger, Classify(res.LedgerWarning))
	assert.Equal(t, 10, res.Balance, "balance reported unchanged")
	assert.Len(t, res.Warnings(), 1)
	assert.Equal(t, 1, h.projects.count(), "project still persisted")
	assert.Equal(t, []int{2}, h.ledger.decrementCalls, "no retry")
}

func TestRunPersistFailureIsAWarning(t *testing.T) {
	h := newHarness(t, 10, false)
	h.projects.err = errors.New("insert failed")

	res, err := h.run(Request{Text: text(250)})

	require.NoError(t, err)
	require.ErrorIs(t, res.PersistWarning, ErrPersist)
	assert.Nil(t, res.Project)
	assert.Equal(t, 8, res.Balance)
}

func TestRunAccountLookupFailure(t *testing.T) {
	h := newHarness(t, 10, true)
	h.ledger.accountErr = errors.New("db down")

	_, err := h.run(Request{Text: text(250)})

	require.Error(t, err)
	assert.Equal(t, CodeUnknown, Classify(err))
	assert.False(t, h.ctrl.InFlight("session-1"))
}

func TestRunIsSingleFlightPerSession(t *testing.T) {
	h := newHarness(t, 10, true)
	h.provider.readyAt = 1
	h.provider.block = make(chan struct{})
	h.provider.started = make(chan struct{})

	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := h.run(Request{Text: text(250)})
		done <- outcome{res, err}
	}()

	<-h.provider.started
	assert.True(t, h.ctrl.InFlight("session-1"))
	assert.Equal(t, Submitting, h.ctrl.State("session-1"))

	_, err := h.run(Request{Text: text(250)})
	require.ErrorIs(t, err, ErrInFlight)
	assert.Equal(t, CodeInFlight, Classify(err))

	close(h.provider.block)
	first := <-done
	require.NoError(t, first.err)
	assert.Equal(t, "humanized output", first.res.Output)

	// Released: the same session can run again.
	h.provider.block = nil
	h.provider.started = nil
	_, err = h.run(Request{Text: text(250)})
	require.NoError(t, err)
}

func TestRunIgnoresCallerCancellation(t *testing.T) {
	h := newHarness(t, 10, true)
	h.provider.readyAt = 2

	ctx, cancel := context.WithCancel(context.Background())
	h.sleeps = &sleepRecorder{}
	policy := DefaultPollPolicy()
	policy.Sleep = func(time.Duration) { cancel() }
	h.ctrl.poller = NewPoller(h.provider, policy, nil)

	res, err := h.ctrl.Run(ctx, Request{AccountID: acctID, SessionID: "s", Text: text(250)})

	require.NoError(t, err)
	assert.Equal(t, "humanized output", res.Output)
	assert.Equal(t, []int{2}, h.ledger.decrementCalls)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" LIVE ")
	require.NoError(t, err)
	assert.Equal(t, ModeLive, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, Mode(""), m)

	_, err = ParseMode("turbo")
	assert.ErrorIs(t, err, ErrValidation)
}
