package humanize

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// DefaultSimulateDelay keeps the simulated path about as slow as a fast live round trip.
const DefaultSimulateDelay = 1100 * time.Millisecond

var contractions = []struct{ from, to string }{
	{"I am", "I'm"},
	{"It is", "It's"},
	{"cannot", "can't"},
}

var vocabulary = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)\bAI\b`), "artificial intelligence"},
	{regexp.MustCompile(`(?i)\balgorithms\b`), "processes"},
	{regexp.MustCompile(`(?i)\balgorithm\b`), "process"},
	{regexp.MustCompile(`(?i)\bautomated\b`), "carefully crafted"},
}

const tagQuestion = ", don't you think"

// Transform is the local humanization rewrite. It is pure and deterministic, but not
// idempotent: running it on its own output stacks another round of sentence openers.
func Transform(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	out := text

	// 1. --- Contractions ---
	for _, c := range contractions {
		out = strings.ReplaceAll(out, c.from, c.to)
	}

	// 2. --- Vocabulary ---
	for _, v := range vocabulary {
		out = v.re.ReplaceAllString(out, v.repl)
	}

	// 3. --- Sentence openers and tag questions ---
	sentences := strings.Split(out, ". ")
	tagged := make([]bool, len(sentences))
	for i, s := range sentences {
		if utf8.RuneCountInString(s) <= 10 {
			continue
		}
		switch {
		case i%3 == 0:
			sentences[i] = "Actually, " + lowerFirst(s)
		case i%4 == 0:
			sentences[i] = "Honestly, " + lowerFirst(s)
		}
		if i%5 == 2 && i < len(sentences)-1 {
			sentences[i] += tagQuestion
			tagged[i] = true
		}
	}

	// 4. --- Boundary punctuation ---
	total := 0
	for _, s := range sentences {
		total += len(s)
	}
	total += 2 * (len(sentences) - 1)

	var b strings.Builder
	b.Grow(total)
	for i, s := range sentences {
		b.WriteString(s)
		if i == len(sentences)-1 {
			break
		}
		offset := b.Len()
		switch {
		case tagged[i]:
			b.WriteString("? ")
		case i%4 == 3 && offset > 50 && offset < total-60:
			b.WriteString("! ")
		default:
			b.WriteString(". ")
		}
	}
	return b.String()
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// Simulator is the offline stand-in for the provider.
type Simulator struct {
	Delay time.Duration
	Sleep func(time.Duration) // nil means time.Sleep
}

// NewSimulator returns a simulator with the given artificial delay.
func NewSimulator(delay time.Duration) *Simulator {
	return &Simulator{Delay: delay}
}

// Simulate waits the fixed delay and returns Transform(text).
func (s *Simulator) Simulate(text string) string {
	sleep := s.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	if s.Delay > 0 {
		sleep(s.Delay)
	}
	return Transform(text)
}
