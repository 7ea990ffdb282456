package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"relay-bot/backend"
	"relay-bot/messaging"
)

func MessagingFactory(cfg *Config) (messaging.MessageClient, error) {
	var sr messaging.MessageClient

	if cfg.Provider == "telegram" {
		telegramApitoken, exists := GetSecret("TELEGRAM_TOKEN", cfg.Telegram.ApiToken)
		if !exists {
			return sr, fmt.Errorf("ENV var `TELEGRAM_TOKEN` not found")
		}
		return messaging.NewTelegramReceiver(telegramApitoken, cfg.Telegram.Debug, cfg.Telegram.ParseMode)
	}
	if cfg.Provider == "signal" {
		return messaging.NewSignalReceiver(cfg.Signal.Socket, cfg.Signal.Sources)
	}
	if cfg.Provider == "none" { // HTTP surface only
		return sr, nil
	}
	return sr, fmt.Errorf("Provider %s not supportted", cfg.Provider)
}

// BackendsFactory builds one backend per mode. Both keys are required since
// users can switch at any time.
func BackendsFactory(ctx context.Context, cfg *Config) (map[backend.Mode]backend.Backend, error) {
	geminiKey, exists := GetSecret("GEMINI_API_KEY", cfg.Gemini.ApiKey)
	if !exists {
		return nil, fmt.Errorf("ENV var `GEMINI_API_KEY` not found")
	}
	deepseekKey, exists := GetSecret("DEEPSEEK_API_KEY", cfg.DeepSeek.ApiKey)
	if !exists {
		return nil, fmt.Errorf("ENV var `DEEPSEEK_API_KEY` not found")
	}

	gemini, err := backend.NewGemini(ctx, backend.GeminiConfig{
		APIKey: geminiKey,
		Model:  cfg.Gemini.Model,
	})
	if err != nil {
		return nil, err
	}
	deepseek, err := backend.NewDeepSeek(backend.DeepSeekConfig{
		APIKey:  deepseekKey,
		URL:     cfg.DeepSeek.Url,
		Timeout: cfg.DeepSeek.Timeout,
	})
	if err != nil {
		return nil, err
	}

	return map[backend.Mode]backend.Backend{
		backend.Gemini:   gemini,
		backend.DeepSeek: deepseek,
	}, nil
}

// MessagingPoller feeds every update to the relay, one at a time.
func MessagingPoller(
	ctx context.Context,
	sr messaging.MessageClient,
	relay updateHandler,
) {
	updates := sr.GetUpdates(ctx)

	for update := range updates {
		id := uuid.NewString()
		if err := relay.Handle(ctx, id, sr, update); err != nil {
			log.Printf("MessagingPoller: update %s failed: %v", id, err)
		}
	}
	log.Println("MessagingPoller: updates channel closed, exiting")
}
