package main

import (
	"context"
	"fmt"
	"log"

	"relay-bot/backend"
	"relay-bot/messaging"
)

const welcomeText = "🤖 *Welcome to the smart bot!*\n" +
	"🔹 You can choose which model answers you:\n\n" +
	"🔵 Gemini: creative answers\n" +
	"🟢 DeepSeek: technical answers\n"

const useUsage = "Usage: /use gemini|deepseek"

type updateHandler interface {
	Handle(ctx context.Context, id string, sender messaging.MessageSender, msg messaging.Message) error
}

// Relay forwards chat messages to the backend picked by the shared selector.
type Relay struct {
	selector     *backend.Selector
	backends     map[backend.Mode]backend.Backend
	replyOnError bool
}

func NewRelay(selector *backend.Selector, backends map[backend.Mode]backend.Backend, replyOnError bool) *Relay {
	return &Relay{
		selector:     selector,
		backends:     backends,
		replyOnError: replyOnError,
	}
}

func modeOptions() []messaging.Option {
	return []messaging.Option{
		{Label: "🔵 Use Gemini", Data: string(backend.Gemini)},
		{Label: "🟢 Use DeepSeek", Data: string(backend.DeepSeek)},
	}
}

func switchedText(m backend.Mode) string {
	return fmt.Sprintf("✅ Model switched to *%s*!\nYou can ask your question now.", m.Label())
}

func answerText(m backend.Mode, text string) string {
	return fmt.Sprintf("🤖 *Answer (%s):*\n%s", m.Label(), text)
}

func failureText(m backend.Mode) string {
	return fmt.Sprintf("⚠️ %s could not answer right now.", m.Label())
}

func (r *Relay) Mode() backend.Mode {
	return r.selector.Get()
}

// SetMode switches the backend for every conversation.
func (r *Relay) SetMode(m backend.Mode) {
	r.selector.Set(m)
}

// Ask sends text to the active backend and returns the mode that answered.
func (r *Relay) Ask(ctx context.Context, text string) (backend.Mode, string, error) {
	mode := r.selector.Get()
	b, ok := r.backends[mode]
	if !ok {
		return mode, "", fmt.Errorf("%w: no backend for %q", backend.ErrUnknownMode, mode)
	}
	reply, err := b.Generate(ctx, backend.Compose(text))
	if err != nil {
		return mode, "", err
	}
	return mode, reply, nil
}

func (r *Relay) Handle(ctx context.Context, id string, sender messaging.MessageSender, msg messaging.Message) error {
	switch msg.Type {
	case messaging.Command:
		return r.handleCommand(id, sender, msg)
	case messaging.Callback:
		return r.handleSelection(id, sender, msg)
	case messaging.Chat:
		return r.handleText(ctx, id, sender, msg)
	}
	return nil
}

func (r *Relay) handleCommand(id string, sender messaging.MessageSender, msg messaging.Message) error {
	switch msg.Command {
	case "start":
		if err := sender.SendOptions(welcomeText, modeOptions(), msg); err != nil {
			return fmt.Errorf("send welcome: %w", err)
		}
	case "use":
		if len(msg.Args) != 1 {
			return sender.SendMessage(useUsage, msg)
		}
		mode, err := backend.ParseMode(msg.Args[0])
		if err != nil {
			return sender.SendMessage(useUsage, msg)
		}
		r.selector.Set(mode)
		log.Printf("relay: update %s switched mode to %s", id, mode)
		if err := sender.SendMessage(switchedText(mode), msg); err != nil {
			return fmt.Errorf("send confirmation: %w", err)
		}
	}
	return nil
}

func (r *Relay) handleSelection(id string, sender messaging.MessageSender, msg messaging.Message) error {
	if err := sender.AnswerCallback(msg); err != nil {
		log.Printf("relay: update %s: answer callback: %v", id, err)
	}

	mode := backend.Mode(msg.CallbackData)
	if !mode.Valid() {
		log.Printf("relay: update %s: ignoring callback payload %q", id, msg.CallbackData)
		return nil
	}

	r.selector.Set(mode)
	log.Printf("relay: update %s switched mode to %s", id, mode)
	if err := sender.EditMessage(switchedText(mode), msg); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

func (r *Relay) handleText(ctx context.Context, id string, sender messaging.MessageSender, msg messaging.Message) error {
	// Non-text messages (stickers, photos) arrive without text.
	if msg.Text == "" {
		return nil
	}

	mode, reply, err := r.Ask(ctx, msg.Text)
	if err != nil {
		if r.replyOnError {
			if sendErr := sender.SendMessage(failureText(mode), msg); sendErr != nil {
				log.Printf("relay: update %s: send failure notice: %v", id, sendErr)
			}
		}
		return fmt.Errorf("%s backend: %w", mode, err)
	}

	log.Printf("relay: update %s answered by %s", id, mode)
	if err := sender.SendMessage(answerText(mode, reply), msg); err != nil {
		return fmt.Errorf("send answer: %w", err)
	}
	return nil
}
