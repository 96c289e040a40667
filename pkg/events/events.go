// Package events delivers navigation events to logs and to the event store.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sw33tLie/applinks/internal/utils"
	"github.com/sw33tLie/applinks/pkg/navigation"
	"github.com/sw33tLie/applinks/pkg/storage"
)

// LogPoster writes every event as a structured log line.
type LogPoster struct {
	Logger *logrus.Logger
	Level  logrus.Level
}

func NewLogPoster() *LogPoster {
	return &LogPoster{Logger: utils.Log, Level: logrus.InfoLevel}
}

func (p *LogPoster) PostNotification(eventName string, args map[string]interface{}) {
	logger := p.Logger
	if logger == nil {
		logger = utils.Log
	}
	logger.WithFields(logrus.Fields(args)).WithField("event", eventName).Log(p.Level, "App link event")
}

// Recorder persists events. *storage.DB satisfies it.
type Recorder interface {
	InsertEvent(ctx context.Context, e storage.Event) error
}

// StorePoster records events through a Recorder. Posting never fails the
// caller: write errors are logged.
type StorePoster struct {
	Recorder Recorder
	Timeout  time.Duration
	now      func() time.Time
}

func NewStorePoster(r Recorder) *StorePoster {
	return &StorePoster{Recorder: r, Timeout: 5 * time.Second, now: time.Now}
}

func (p *StorePoster) PostNotification(eventName string, args map[string]interface{}) {
	if p.Recorder == nil {
		return
	}
	now := time.Now
	if p.now != nil {
		now = p.now
	}

	ctx := context.Background()
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	e := ToEvent(eventName, args)
	e.OccurredAt = now()
	if err := p.Recorder.InsertEvent(ctx, e); err != nil {
		utils.Log.Warnf("Could not record %s event: %v", eventName, err)
	}
}

// ToEvent maps event arguments onto a storage.Event. Inbound events carry
// their target URL in place of a source.
func ToEvent(eventName string, args map[string]interface{}) storage.Event {
	e := storage.Event{
		Name:      eventName,
		Type:      str(args, navigation.TypeArg),
		Success:   str(args, navigation.SuccessArg) == "1",
		SourceURL: str(args, navigation.SourceURLArg),
		OutputURL: str(args, navigation.OutputURLArg),
		Error:     str(args, navigation.ErrorArg),
	}
	e.SourceHost = str(args, navigation.SourceHostArg)

	if eventName == navigation.InboundEventName {
		e.SourceURL = str(args, "targetURL")
		e.SourceHost = str(args, "targetURLHost")
		e.OutputURL = str(args, "inputURL")
		e.Success = true
	}
	return e
}

func str(args map[string]interface{}, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Multi fans an event out to every poster in order.
type Multi []navigation.EventPoster

func (m Multi) PostNotification(eventName string, args map[string]interface{}) {
	for _, p := range m {
		if p != nil {
			p.PostNotification(eventName, args)
		}
	}
}
