package goBlade

import (
	"context"

	"github.com/rs/zerolog"
)

type NotificationType string

const (
	NotifySuccess NotificationType = "success"
	NotifyWarning NotificationType = "warning"
)

type Notification struct {
	Type    NotificationType
	Title   string
	Message string
}

// Notifier shows transient messages to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// LogNotifier writes notifications to a zerolog logger.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (l LogNotifier) Notify(_ context.Context, n Notification) {
	ev := l.Logger.Info()
	if n.Type == NotifyWarning {
		ev = l.Logger.Warn()
	}
	ev.Str("title", n.Title).Msg(n.Message)
}
