package humanize

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/01moynul/humanize-golang/internal/models"
)

// recorder keeps the order of side effects across fakes.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(ev string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fakeProvider struct {
	mu        sync.Mutex
	rec       *recorder
	jobID     string
	submitErr error
	readyAt   int // attempt that returns output, 0 = never
	output    string
	docErr    func(attempt int) error
	block     chan struct{} // Submit waits on it when non-nil
	started   chan struct{} // closed when Submit is entered

	submits   int
	documents int
	lastText  string
}

func (p *fakeProvider) Submit(ctx context.Context, text string, opts Options) (JobHandle, error) {
	if p.started != nil {
		close(p.started)
	}
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submits++
	p.lastText = text
	if p.rec != nil {
		p.rec.add("submit")
	}
	if p.submitErr != nil {
		return JobHandle{}, p.submitErr
	}
	return JobHandle{ID: p.jobID}, nil
}

func (p *fakeProvider) Document(ctx context.Context, h JobHandle) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.documents++
	if p.rec != nil {
		p.rec.add("document")
	}
	if p.docErr != nil {
		if err := p.docErr(p.documents); err != nil {
			return "", err
		}
	}
	if p.readyAt > 0 && p.documents >= p.readyAt {
		return p.output, nil
	}
	return "", nil
}

func (p *fakeProvider) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.submits, p.documents
}

type fakeLedger struct {
	mu           sync.Mutex
	rec          *recorder
	accounts     map[int64]models.Account
	accountErr   error
	decrementErr error

	accountCalls   int
	decrementCalls []int
}

func newFakeLedger(rec *recorder, id int64, credits int, plan string) *fakeLedger {
	return &fakeLedger{
		rec:      rec,
		accounts: map[int64]models.Account{id: {UserID: id, Credits: credits, Plan: plan}},
	}
}

func (l *fakeLedger) Account(ctx context.Context, id int64) (models.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accountCalls++
	if l.rec != nil {
		l.rec.add("account")
	}
	if l.accountErr != nil {
		return models.Account{}, l.accountErr
	}
	a, ok := l.accounts[id]
	if !ok {
		return models.Account{}, errors.New("no such account")
	}
	return a, nil
}

func (l *fakeLedger) Decrement(ctx context.Context, id int64, amount int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.decrementCalls = append(l.decrementCalls, amount)
	if l.rec != nil {
		l.rec.add("decrement")
	}
	if l.decrementErr != nil {
		return 0, l.decrementErr
	}
	a := l.accounts[id]
	a.Credits = Decrement(a.Credits, amount)
	l.accounts[id] = a
	return a.Credits, nil
}

func (l *fakeLedger) balance(id int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accounts[id].Credits
}

type fakeProjects struct {
	mu    sync.Mutex
	rec   *recorder
	err   error
	saved []*models.Project
}

func (f *fakeProjects) CreateProject(ctx context.Context, p *models.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rec != nil {
		f.rec.add("persist")
	}
	if f.err != nil {
		return f.err
	}
	p.ID = int64(len(f.saved) + 1)
	f.saved = append(f.saved, p)
	return nil
}

func (f *fakeProjects) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

type fakePlans map[string]*models.Plan

func (f fakePlans) Get(slug string) *models.Plan { return f[slug] }

// sleepRecorder replaces time.Sleep in policies and simulators.
type sleepRecorder struct {
	mu    sync.Mutex
	slept []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slept = append(s.slept, d)
}

func (s *sleepRecorder) calls() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.slept...)
}

func text(n int) string { return strings.Repeat("x", n) }
