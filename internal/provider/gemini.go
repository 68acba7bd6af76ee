package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/01moynul/humanize-golang/internal/humanize"
)

// GenerateFunc produces the rewritten text for a prompt.
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

// Gemini adapts a synchronous Gemini model to the submit/poll job contract.
// Submit starts generation in the background; Document hands the result out exactly once.
type Gemini struct {
	client   *genai.Client
	generate GenerateFunc
	timeout  time.Duration
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu   sync.Mutex
	jobs map[string]*geminiJob
	wg   sync.WaitGroup
}

type geminiJob struct {
	created time.Time
	done    bool
	output  string
	err     error
}

// NewGemini creates the Gemini client and model.
func NewGemini(ctx context.Context, apiKey, modelName string, logger *zap.Logger) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash" // Fallback default
	}
	model := client.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}

	g := NewGeminiWithGenerator(func(ctx context.Context, prompt string) (string, error) {
		res, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", err
		}
		return responseText(res), nil
	}, logger)
	g.client = client
	return g, nil
}

// NewGeminiWithGenerator builds the adapter around any generator.
func NewGeminiWithGenerator(gen GenerateFunc, logger *zap.Logger) *Gemini {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gemini{
		generate: gen,
		timeout:  60 * time.Second,
		ttl:      10 * time.Minute,
		logger:   logger.Named("gemini"),
		now:      time.Now,
		jobs:     make(map[string]*geminiJob),
	}
}

const systemInstruction = `You rewrite text so it reads as if a person wrote it.
Keep the meaning, facts and language of the input. Vary sentence length, prefer plain words,
use contractions where natural. Reply with the rewritten text only.`

func buildPrompt(text string, opts humanize.Options) string {
	var b strings.Builder
	if opts.Readability != "" {
		fmt.Fprintf(&b, "Readability: %s\n", opts.Readability)
	}
	if opts.Purpose != "" {
		fmt.Fprintf(&b, "Purpose: %s\n", opts.Purpose)
	}
	if opts.Strength != "" {
		fmt.Fprintf(&b, "Rewrite strength: %s\n", opts.Strength)
	}
	b.WriteString("\nText:\n")
	b.WriteString(text)
	return b.String()
}

func responseText(res *genai.GenerateContentResponse) string {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}

// Submit registers a job and starts generating. It never blocks on the model.
func (g *Gemini) Submit(ctx context.Context, text string, opts humanize.Options) (humanize.JobHandle, error) {
	id := uuid.NewString()
	job := &geminiJob{created: g.now()}

	g.mu.Lock()
	g.jobs[id] = job
	g.mu.Unlock()

	prompt := buildPrompt(text, opts)
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		genCtx, cancel := context.WithTimeout(context.Background(), g.timeout)
		defer cancel()

		out, err := g.generate(genCtx, prompt)
		if err == nil && strings.TrimSpace(out) == "" {
			err = fmt.Errorf("empty response")
		}

		g.mu.Lock()
		job.done, job.output, job.err = true, out, err
		g.mu.Unlock()

		if err != nil {
			g.logger.Warn("generation failed", zap.String("job", id), zap.Error(err))
		}
	}()

	return humanize.JobHandle{ID: id}, nil
}

// Document returns "" while generation runs, the output once it is done (removing the job),
// or a terminal error for failed and unknown jobs.
func (g *Gemini) Document(ctx context.Context, h humanize.JobHandle) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	job, ok := g.jobs[h.ID]
	if !ok {
		return "", fmt.Errorf("%w: %w: unknown job %s", humanize.ErrTransport, humanize.ErrJobFailed, h.ID)
	}
	if !job.done {
		return "", nil
	}
	delete(g.jobs, h.ID)

	if job.err != nil {
		if isQuotaError(job.err.Error()) || strings.Contains(strings.ToLower(job.err.Error()), "quota") {
			return "", fmt.Errorf("%w: %w: %v", humanize.ErrInsufficientCredits, humanize.ErrJobFailed, job.err)
		}
		return "", fmt.Errorf("%w: %w: %v", humanize.ErrTransport, humanize.ErrJobFailed, job.err)
	}
	return job.output, nil
}

// Sweep drops jobs nobody collected within the TTL.
func (g *Gemini) Sweep(now time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	cutoff := now.Add(-g.ttl)
	n := 0
	for id, job := range g.jobs {
		if job.done && job.created.Before(cutoff) {
			delete(g.jobs, id)
			n++
		}
	}
	return n
}

// Pending returns the number of jobs still held.
func (g *Gemini) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.jobs)
}

// Close waits for running generations and closes the client.
func (g *Gemini) Close() error {
	g.wg.Wait()
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

var _ humanize.Provider = (*Gemini)(nil)
