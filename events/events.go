// Package events carries "state changed, render again" signals from the
// view-state holders to whoever draws them.
package events

import (
	"context"

	Logger "github.com/Leitan123/SmartScholarsPAF/utils/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/sirupsen/logrus"
)

const (
	TopicFeed   = "feed.updated"
	TopicPeople = "people.updated"
	TopicStory  = "story.updated"
	TopicInbox  = "inbox.updated"

	// Buffered so that a slow renderer does not stall the holders.
	outputBuffer = 64
)

// Event names the topic and the item that changed. Id is empty when the
// whole list was replaced.
type Event struct {
	Topic string
	Id    string
}

type Bus struct {
	channel *gochannel.GoChannel
}

func NewBus() *Bus {
	return &Bus{
		channel: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: outputBuffer},
			logrusAdapter{entry: Logger.Log},
		),
	}
}

// Publish is a no-op on a nil bus, holders built without one stay silent.
func (b *Bus) Publish(topic string, id string) {
	if b == nil {
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), []byte(id))
	if err := b.channel.Publish(topic, msg); err != nil {
		Logger.Log.WithError(err).WithField("topic", topic).Error("fail to publish event")
	}
}

// Subscribe streams events of topic until ctx is done or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan Event, error) {
	messages, err := b.channel.Subscribe(ctx, topic)
	if err != nil {
		return nil, err
	}
	out := make(chan Event)
	go func() {
		defer close(out)
		for msg := range messages {
			msg.Ack()
			select {
			case out <- Event{Topic: topic, Id: string(msg.Payload)}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (b *Bus) Close() error {
	if b == nil {
		return nil
	}
	return b.channel.Close()
}

// logrusAdapter routes watermill's own logging into the global logger, one
// level quieter since every publish without subscriber is reported as info.
type logrusAdapter struct {
	entry *logrus.Entry
}

func (l logrusAdapter) fields(fields watermill.LogFields) *logrus.Entry {
	return l.entry.WithFields(logrus.Fields(fields))
}

func (l logrusAdapter) Error(msg string, err error, fields watermill.LogFields) {
	l.fields(fields).WithError(err).Error(msg)
}

func (l logrusAdapter) Info(msg string, fields watermill.LogFields) {
	l.fields(fields).Debug(msg)
}

func (l logrusAdapter) Debug(msg string, fields watermill.LogFields) {
	l.fields(fields).Trace(msg)
}

func (l logrusAdapter) Trace(msg string, fields watermill.LogFields) {
	l.fields(fields).Trace(msg)
}

func (l logrusAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return logrusAdapter{entry: l.fields(fields)}
}
