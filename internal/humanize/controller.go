package humanize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/01moynul/humanize-golang/internal/metrics"
	"github.com/01moynul/humanize-golang/internal/models"
)

// DefaultTitle is used when a run is submitted without a title.
const DefaultTitle = "Untitled Project"

// Mode selects the live provider or the local simulator.
type Mode string

const (
	ModeLive      Mode = "live"
	ModeSimulated Mode = "simulated"
)

// ParseMode accepts "", "live" and "simulated". The empty mode means "use the default".
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ModeLive, ModeSimulated:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrValidation, s)
	}
}

// Config is the policy injected into the Controller.
type Config struct {
	// LiveMode is the server-wide default. Sessions may override it with SetLiveMode.
	LiveMode bool
	// HasCredentials is false when no provider is configured. It forces simulated mode.
	HasCredentials bool
	PollPolicy     RetryPolicy
}

// Deps are the collaborators of the Controller. Provider may be nil when HasCredentials is false.
type Deps struct {
	Provider  Provider
	Simulator *Simulator
	Ledger    Ledger
	Projects  ProjectStore
	Plans     PlanLookup
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

// Request is one humanize run.
type Request struct {
	AccountID int64
	SessionID string
	Title     string
	Text      string
	Mode      Mode
	Options   Options
	// Truncate cuts over-limit input instead of rejecting it.
	Truncate bool
}

// Result is returned for every run that produced output. The warnings report bookkeeping
// that failed after the output existed; the output is still valid.
type Result struct {
	Output      string          `json:"output"`
	CreditsUsed int             `json:"creditsUsed"`
	Mode        Mode            `json:"mode"`
	Balance     int             `json:"balance"`
	Attempts    int             `json:"attempts,omitempty"`
	State       State           `json:"state"`
	Project     *models.Project `json:"project,omitempty"`

	// Demo marks a free run of a zero-balance account: nothing is debited or saved.
	Demo bool `json:"demo,omitempty"`

	LedgerWarning  error `json:"-"`
	PersistWarning error `json:"-"`
}

// Warnings returns the warning messages of the result, if any.
func (r *Result) Warnings() []string {
	var out []string
	if r.LedgerWarning != nil {
		out = append(out, r.LedgerWarning.Error())
	}
	if r.PersistWarning != nil {
		out = append(out, r.PersistWarning.Error())
	}
	return out
}

// Controller orchestrates a humanize run: validate, produce output (live or simulated),
// debit the ledger, persist the project.
type Controller struct {
	provider  Provider
	poller    *Poller
	simulator *Simulator
	ledger    Ledger
	projects  ProjectStore
	plans     PlanLookup
	logger    *zap.Logger
	metrics   *metrics.Metrics

	live           bool
	modes          *modeOverrides
	hasCredentials bool
	guard          *sessionGuard
	now            func() time.Time
}

// NewController wires a Controller.
func NewController(cfg Config, d Deps) *Controller {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sim := d.Simulator
	if sim == nil {
		sim = NewSimulator(DefaultSimulateDelay)
	}
	policy := cfg.PollPolicy
	if policy.MaxAttempts == 0 {
		policy = DefaultPollPolicy()
	}

	c := &Controller{
		provider:       d.Provider,
		simulator:      sim,
		ledger:         d.Ledger,
		projects:       d.Projects,
		plans:          d.Plans,
		logger:         logger.Named("humanize"),
		metrics:        d.Metrics,
		hasCredentials: cfg.HasCredentials && d.Provider != nil,
		guard:          newSessionGuard(),
		modes:          newModeOverrides(),
		live:           cfg.LiveMode,
		now:            time.Now,
	}
	if d.Provider != nil {
		c.poller = NewPoller(d.Provider, policy, c.logger)
	}
	return c
}

// SetLiveMode overrides the default mode for one session only.
func (c *Controller) SetLiveMode(sessionKey string, live bool) {
	c.modes.set(sessionKey, live, c.now())
}

// LiveMode reports the effective default mode of a session (false whenever credentials are missing).
func (c *Controller) LiveMode(sessionKey string) bool {
	return c.hasCredentials && c.sessionLive(sessionKey)
}

// DefaultLiveMode reports the server-wide default.
func (c *Controller) DefaultLiveMode() bool { return c.hasCredentials && c.live }

// SweepModes drops session overrides set before cutoff and returns how many were dropped.
func (c *Controller) SweepModes(cutoff time.Time) int { return c.modes.sweep(cutoff) }

func (c *Controller) sessionLive(key string) bool {
	if live, ok := c.modes.get(key); ok {
		return live
	}
	return c.live
}

// State returns the workflow state of a session.
func (c *Controller) State(sessionID string) State { return c.guard.state(sessionID) }

// InFlight reports whether a run is active for the session.
func (c *Controller) InFlight(sessionID string) bool { return c.guard.inFlight(sessionID) }

func (c *Controller) resolveMode(key string, requested Mode) Mode {
	if !c.hasCredentials {
		return ModeSimulated
	}
	switch requested {
	case ModeLive, ModeSimulated:
		return requested
	}
	if c.sessionLive(key) {
		return ModeLive
	}
	return ModeSimulated
}

// SessionKey is the single-flight key of a run: the login session, or the account
// when the caller has none.
func SessionKey(accountID int64, sessionID string) string {
	if sessionID != "" {
		return sessionID
	}
	return fmt.Sprintf("account:%d", accountID)
}

// Run executes one humanize run. The session guard is released on every return path.
// On success the ledger is debited first and the project persisted second; failures of
// either step are reported as warnings on the Result, never as the returned error.
func (c *Controller) Run(ctx context.Context, req Request) (res *Result, err error) {
	key := SessionKey(req.AccountID, req.SessionID)
	s, err := c.guard.acquire(key)
	if err != nil {
		c.logger.Info("rejected re-entrant run", zap.String("session", key))
		return nil, err
	}
	defer c.guard.release(key, s)

	start := c.now()
	mode := c.resolveMode(key, req.Mode)
	log := c.logger.With(zap.Int64("account", req.AccountID), zap.String("session", key), zap.String("mode", string(mode)))
	defer func() {
		code := Classify(err)
		c.metrics.ObserveRun(string(mode), string(code), c.now().Sub(start).Seconds())
		if err != nil {
			c.transition(s, Failed)
			log.Info("humanize run failed", zap.String("code", string(code)), zap.Error(err))
		}
	}()

	// Provider work and bookkeeping outlive the caller: there is no user-triggered cancel.
	workCtx := context.WithoutCancel(ctx)

	// 1. --- Validate ---
	// Empty and short input is rejected before the ledger is touched; the limit needs the account.
	c.transition(s, Validating)
	text := strings.TrimSpace(req.Text)
	if err := Validate(text, 0); err != nil {
		return nil, err
	}
	acct, err := c.ledger.Account(ctx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("humanize: load account %d: %w", req.AccountID, err)
	}
	limit := ActiveLimit(acct, c.plan(acct.Plan))
	if req.Truncate {
		text = strings.TrimSpace(Truncate(text, limit))
	}
	if err := Validate(text, limit); err != nil {
		return nil, err
	}

	// A zero balance gets the free demo: simulated, capped at FreeCharLimit, never debited or saved.
	demo := acct.Credits <= 0
	credits := 0
	if demo {
		if mode != ModeSimulated {
			mode = ModeSimulated
			log = c.logger.With(zap.Int64("account", req.AccountID), zap.String("session", key), zap.String("mode", string(mode)))
		}
	} else {
		credits = CreditsFor(text)
		if acct.Credits < credits {
			return nil, fmt.Errorf("%w: balance %d, run needs %d", ErrInsufficientCredits, acct.Credits, credits)
		}
	}

	// 2. --- Produce output ---
	c.transition(s, Submitting)
	var output string
	var attempts int
	if mode == ModeLive {
		handle, err := c.provider.Submit(workCtx, text, req.Options)
		if err != nil {
			return nil, err
		}
		log.Debug("job submitted", zap.String("job", handle.ID))

		c.transition(s, Polling)
		job, err := c.poller.Poll(workCtx, handle)
		c.metrics.ObservePoll(job.Attempts)
		if err != nil {
			return nil, err
		}
		output, attempts = job.Output, job.Attempts
	} else {
		output = c.simulator.Simulate(text)
	}
	c.transition(s, Succeeded)

	res = &Result{
		Output:      output,
		CreditsUsed: credits,
		Mode:        mode,
		Balance:     acct.Credits,
		Attempts:    attempts,
		State:       Succeeded,
		Demo:        demo,
	}
	if demo {
		log.Info("demo run finished", zap.Int("length", Length(text)))
		return res, nil
	}

	// 3. --- Debit the ledger ---
	balance, lerr := c.ledger.Decrement(workCtx, req.AccountID, credits)
	if lerr != nil {
		res.LedgerWarning = fmt.Errorf("%w: %v", ErrLedgerUpdate, lerr)
		c.metrics.LedgerFailed()
		log.Warn("credit decrement failed, output still delivered", zap.Int("credits", credits), zap.Error(lerr))
	} else {
		res.Balance = balance
	}

	// 4. --- Persist the project ---
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = DefaultTitle
	}
	project := &models.Project{
		UserID:      req.AccountID,
		Title:       title,
		Slug:        slug.Make(title),
		InputText:   text,
		OutputText:  output,
		CreditsUsed: credits,
		Mode:        string(mode),
		CreatedAt:   c.now().UTC(),
	}
	if perr := c.projects.CreateProject(workCtx, project); perr != nil {
		res.PersistWarning = fmt.Errorf("%w: %v", ErrPersist, perr)
		log.Warn("project save failed, output still delivered", zap.Error(perr))
	} else {
		res.Project = project
	}

	log.Info("humanize run finished",
		zap.Int("credits", credits), zap.Int("balance", res.Balance), zap.Int("attempts", attempts))
	return res, nil
}

func (c *Controller) plan(name string) *models.Plan {
	if c.plans == nil || name == "" {
		return nil
	}
	return c.plans.Get(name)
}

func (c *Controller) transition(s *session, to State) {
	if err := c.guard.advance(s, to); err != nil {
		c.logger.Error("state machine", zap.Error(err))
	}
}
