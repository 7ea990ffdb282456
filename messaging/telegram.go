package messaging

import (
	"context"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// botSender is the outbound half of tgbotapi.BotAPI.
type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type telegramReceiver struct {
	apitoken  string
	ch        chan Message
	debug     bool
	parseMode string
	bot       *tgbotapi.BotAPI
	sender    botSender
}

func NewTelegramReceiver(apitoken string, debug bool, parseMode string) (*telegramReceiver, error) {
	bot, err := tgbotapi.NewBotAPI(apitoken)
	if err != nil {
		return nil, err
	}

	bot.Debug = debug

	r := &telegramReceiver{
		ch:        make(chan Message, 10),
		apitoken:  apitoken,
		debug:     debug,
		parseMode: parseMode,
		bot:       bot,
		sender:    bot,
	}
	return r, nil
}

func (s *telegramReceiver) GetUpdates(ctx context.Context) <-chan Message {
	go s.messageReceiver(ctx)
	return s.ch
}

func parseTelegramCallback(query *tgbotapi.CallbackQuery) Message {
	m := Message{
		Type:         Callback,
		Raw:          query.Data,
		CallbackID:   query.ID,
		CallbackData: query.Data,
	}
	// The originating message is missing when it is too old to be edited.
	if query.Message != nil {
		m.MessageID = query.Message.MessageID
		if query.Message.Chat != nil {
			m.ChatID = query.Message.Chat.ID
		}
	}
	return m
}

func parseTelegramMessage(update *tgbotapi.Update) Message {
	if update.CallbackQuery != nil {
		return parseTelegramCallback(update.CallbackQuery)
	}
	if update.Message == nil {
		return Message{
			Type: Update,
		}
	}

	messageType := Command
	if !update.Message.IsCommand() {
		messageType = Chat
	}
	var args []string

	if update.Message.CommandArguments() != "" {
		args = strings.Split(update.Message.CommandArguments(), " ")
	}

	var chatID int64
	if update.Message.Chat != nil {
		chatID = update.Message.Chat.ID
	}

	m := Message{
		Type:      messageType,
		Raw:       update.Message.Text,
		Text:      update.Message.Text,
		Command:   update.Message.Command(),
		ChatID:    chatID,
		MessageID: update.Message.MessageID,
		Args:      args,
	}
	return m
}

func (t *telegramReceiver) messageReceiver(ctx context.Context) {
	defer close(t.ch)
	log.Printf("Authorized on account %s", t.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 5

	updates := t.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			// If our context is cancelled, bail out immediately.
			t.bot.StopReceivingUpdates()
			log.Println("telegramReceiver: context done, returning")
			return

		case update, ok := <-updates:
			if !ok {
				// The updates channel has been closed by the library.
				log.Println("telegramReceiver: updates channel closed, exiting")
				return
			}
			m := parseTelegramMessage(&update)
			select {
			case t.ch <- m:
			case <-ctx.Done():
				t.bot.StopReceivingUpdates()
				return
			}
		}
	}

}

func (t *telegramReceiver) SendMessage(message string, replyTo Message) error {
	msg := tgbotapi.NewMessage(replyTo.ChatID, message)
	msg.ParseMode = t.parseMode
	if _, err := t.sender.Send(msg); err != nil {
		return err
	}
	return nil
}

func optionsKeyboard(options []Option) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(options))
	for _, o := range options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(o.Label, o.Data),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (t *telegramReceiver) SendOptions(message string, options []Option, replyTo Message) error {
	msg := tgbotapi.NewMessage(replyTo.ChatID, message)
	msg.ParseMode = t.parseMode
	msg.ReplyMarkup = optionsKeyboard(options)
	if _, err := t.sender.Send(msg); err != nil {
		return err
	}
	return nil
}

func (t *telegramReceiver) EditMessage(message string, replyTo Message) error {
	edit := tgbotapi.NewEditMessageText(replyTo.ChatID, replyTo.MessageID, message)
	edit.ParseMode = t.parseMode
	if _, err := t.sender.Send(edit); err != nil {
		return err
	}
	return nil
}

// AnswerCallback dismisses the loading indicator on the pressed button.
func (t *telegramReceiver) AnswerCallback(replyTo Message) error {
	if replyTo.CallbackID == "" {
		return nil
	}
	// answerCallbackQuery returns a bool, so it must go through Request.
	if _, err := t.sender.Request(tgbotapi.NewCallback(replyTo.CallbackID, "")); err != nil {
		return err
	}
	return nil
}
