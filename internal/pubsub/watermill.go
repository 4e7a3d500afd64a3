package pubsub

import (
	"context"
	"log/slog"
	"maps"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Reserved watermill metadata keys.
const (
	keyTopic  = "sb.topic"
	keySender = "sb.sender"
)

// ChannelBus is a Publisher and Subscriber backed by watermill's GoChannel.
//
// Publish blocks until every subscriber of the topic has acked, which keeps
// per-publisher ordering. A handler must therefore never publish to its own
// topic.
type ChannelBus struct {
	ch  *gochannel.GoChannel
	log *slog.Logger
}

// NewChannelBus creates an empty bus. A nil logger means slog.Default.
func NewChannelBus(logger *slog.Logger) *ChannelBus {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "bus")
	return &ChannelBus{
		ch: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            256,
			BlockPublishUntilSubscriberAck: true,
		}, watermillLogger{logger}),
		log: logger,
	}
}

func (b *ChannelBus) Publish(_ context.Context, msg Message) error {
	return b.ch.Publish(msg.Topic, encode(msg))
}

// Subscribe acks every delivery after handler returns, even on error:
// GoChannel would otherwise redeliver a nacked message forever.
func (b *ChannelBus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	deliveries, err := b.ch.Subscribe(ctx, topic)
	if err != nil {
		return err
	}
	go func() {
		for d := range deliveries {
			if err := handler(ctx, decode(d)); err != nil {
				b.log.Error("Bus handler failed", "topic", topic, "msg_id", d.UUID, "error", err)
			}
			d.Ack()
		}
		b.log.Debug("Subscription closed", "topic", topic)
	}()
	return nil
}

func (b *ChannelBus) Close() error {
	return b.ch.Close()
}

func encode(msg Message) *message.Message {
	out := message.NewMessage(watermill.NewUUID(), msg.Payload)
	maps.Copy(out.Metadata, msg.Metadata)
	out.Metadata.Set(keyTopic, msg.Topic)
	out.Metadata.Set(keySender, msg.Sender)
	return out
}

func decode(in *message.Message) Message {
	msg := Message{
		Topic:    in.Metadata.Get(keyTopic),
		Sender:   in.Metadata.Get(keySender),
		Payload:  in.Payload,
		Metadata: make(map[string]string, len(in.Metadata)),
	}
	for k, v := range in.Metadata {
		if k != keyTopic && k != keySender {
			msg.Metadata[k] = v
		}
	}
	return msg
}

// watermillLogger feeds watermill's own logging into slog. Trace output sits
// four levels under debug.
type watermillLogger struct {
	l *slog.Logger
}

func (w watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	w.l.Error(msg, append(flatten(fields), "error", err)...)
}

func (w watermillLogger) Info(msg string, fields watermill.LogFields) {
	w.l.Info(msg, flatten(fields)...)
}

func (w watermillLogger) Debug(msg string, fields watermill.LogFields) {
	w.l.Debug(msg, flatten(fields)...)
}

func (w watermillLogger) Trace(msg string, fields watermill.LogFields) {
	w.l.Log(context.Background(), slog.LevelDebug-4, msg, flatten(fields)...)
}

func (w watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillLogger{w.l.With(flatten(fields)...)}
}

func flatten(fields watermill.LogFields) []any {
	kv := make([]any, 0, 2*len(fields))
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return kv
}
