package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rentspace/messaging/internal/domain"
	"github.com/rentspace/messaging/internal/profile"
	"github.com/rentspace/messaging/internal/repository"
)

// Notifier pushes a live event to a user if they are connected.
type Notifier interface {
	Notify(ctx context.Context, userID string, kind domain.EventKind, payload any) bool
}

// Presence answers whether a user holds a live connection on this instance.
type Presence interface {
	IsOnline(userID string) bool
}

// StatusReader renders a peer's live-status label.
type StatusReader interface {
	Status(ctx context.Context, userID string) (online bool, label string)
}

type Service struct {
	store    repository.MessageStore
	notifier Notifier
	presence Presence
	profiles profile.Directory
	status   StatusReader
	log      *zap.Logger

	now   func() time.Time
	newID func() string
}

type Deps struct {
	Store    repository.MessageStore
	Notifier Notifier
	Presence Presence
	Profiles profile.Directory
	Status   StatusReader
	Logger   *zap.Logger
}

func New(d Deps) *Service {
	s := &Service{
		store:    d.Store,
		notifier: d.Notifier,
		presence: d.Presence,
		profiles: d.Profiles,
		status:   d.Status,
		log:      d.Logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	if s.profiles == nil {
		s.profiles = profile.StaticDirectory{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}
