package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Mode identifies which LLM backend answers chat messages.
type Mode string

const (
	Gemini   Mode = "gemini"
	DeepSeek Mode = "deepseek"
)

// DefaultMode is active until someone picks a backend.
const DefaultMode = Gemini

var (
	ErrUnknownMode       = errors.New("unknown mode")
	ErrEmptyResponse     = errors.New("empty response")
	ErrMalformedResponse = errors.New("malformed response")
)

// Modes lists the selectable modes in the order they are offered to users.
func Modes() []Mode {
	return []Mode{Gemini, DeepSeek}
}

func (m Mode) Valid() bool {
	return m == Gemini || m == DeepSeek
}

// Label is the upper-cased name shown in replies.
func (m Mode) Label() string {
	return strings.ToUpper(string(m))
}

func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}

// Backend generates text for an already composed prompt.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// APIError is returned when a backend answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}
