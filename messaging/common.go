package messaging

import "context"

// MessageType tells the relay what kind of event a Message carries.
type MessageType int

const (
	Command MessageType = iota
	Response
	Chat
	Update
	Callback
)

type Message struct {
	Type         MessageType
	Command      string
	Args         []string
	Raw          string
	Text         string
	ChatID       int64  //For telegram
	MessageID    int    //For telegram
	Source       string //For Signal
	CallbackID   string //Button press id, telegram only
	CallbackData string //Payload of the pressed button
}

// Option is a selectable choice rendered next to a message.
type Option struct {
	Label string
	Data  string
}

type MessageReceiver interface {
	GetUpdates(ctx context.Context) <-chan Message
}

type MessageSender interface {
	SendMessage(message string, replyTo Message) error
	SendOptions(message string, options []Option, replyTo Message) error
	EditMessage(message string, replyTo Message) error
	AnswerCallback(replyTo Message) error
}
type MessageClient interface {
	MessageReceiver
	MessageSender
}
