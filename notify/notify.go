// Package notify delivers the short, transient messages a screen shows after
// an action succeeds or fails.
package notify

import (
	"context"
	"net/http"
	"sync"
	"time"

	Logger "github.com/Leitan123/SmartScholarsPAF/utils/log"
	"github.com/slack-go/slack"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Toast struct {
	Level   Level
	Message string
}

type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// LogNotifier writes toasts to the global logger.
type LogNotifier struct{}

func (LogNotifier) Success(msg string) {
	Logger.Log.WithField("toast", LevelSuccess).Info(msg)
}

func (LogNotifier) Error(msg string) {
	Logger.Log.WithField("toast", LevelError).Warn(msg)
}

type discard struct{}

func (discard) Success(string) {}
func (discard) Error(string)   {}

// Discard drops every toast.
var Discard Notifier = discard{}

// Or returns n, or Discard when n is nil.
func Or(n Notifier) Notifier {
	if n == nil {
		return Discard
	}
	return n
}

type multi []Notifier

func (m multi) Success(msg string) {
	for _, n := range m {
		n.Success(msg)
	}
}

func (m multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}

// Multi fans every toast out to all non nil notifiers.
func Multi(notifiers ...Notifier) Notifier {
	m := multi{}
	for _, n := range notifiers {
		if n != nil {
			m = append(m, n)
		}
	}
	return m
}

const (
	slackPostTimeout = 5 * time.Second
	slackGreen       = "#2eb886"
	slackRed         = "#e01e5a"
)

// SlackNotifier mirrors toasts into a slack channel via an incoming webhook.
// Delivery failures are logged and otherwise ignored.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{webhookURL: webhookURL, client: &http.Client{Timeout: slackPostTimeout}}
}

func (s *SlackNotifier) Success(msg string) {
	s.post(LevelSuccess, msg)
}

func (s *SlackNotifier) Error(msg string) {
	s.post(LevelError, msg)
}

func (s *SlackNotifier) post(level Level, msg string) {
	color := slackGreen
	if level == LevelError {
		color = slackRed
	}
	payload := &slack.WebhookMessage{
		Text: msg,
		Attachments: []slack.Attachment{
			{Color: color, Footer: string(level)},
		},
	}
	ctx, cancel := context.WithTimeout(context.Background(), slackPostTimeout)
	defer cancel()
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.client, payload); err != nil {
		Logger.Log.WithError(err).Error("fail to post toast to slack")
	}
}

// Recorder keeps every toast in memory, tests read them back.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *Recorder) Success(msg string) {
	r.add(LevelSuccess, msg)
}

func (r *Recorder) Error(msg string) {
	r.add(LevelError, msg)
}

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, Toast{Level: level, Message: msg})
}

func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast{}, r.toasts...)
}

func (r *Recorder) Messages(level Level) []string {
	res := []string{}
	for _, t := range r.Toasts() {
		if t.Level == level {
			res = append(res, t.Message)
		}
	}
	return res
}

// Last returns the most recent toast, or the zero Toast.
func (r *Recorder) Last() Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.toasts) == 0 {
		return Toast{}
	}
	return r.toasts[len(r.toasts)-1]
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = nil
}
