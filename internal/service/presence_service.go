package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/command-center/internal/domain"
	"github.com/spec-kit/command-center/internal/events"
	"github.com/spec-kit/command-center/internal/feed"
	"github.com/spec-kit/command-center/internal/repository"
)

// PresenceService is the write side of the presence feed: staff terminals
// report heartbeats through it.
type PresenceService struct {
	directory  repository.StaffDirectory
	feed       feed.PresenceFeed
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewPresenceService builds the service.
func NewPresenceService(directory repository.StaffDirectory, presenceFeed feed.PresenceFeed, dispatcher events.Dispatcher, logger *zap.Logger) *PresenceService {
	return &PresenceService{
		directory:  directory,
		feed:       presenceFeed,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// RecordHeartbeat stores one heartbeat for a username under its RoleAccount.
// The reported time is the server's; terminal clocks are not trusted.
func (s *PresenceService) RecordHeartbeat(ctx context.Context, account domain.RoleAccount, username string) error {
	if !account.Valid() {
		return errors.New("unknown role account")
	}
	if username == "" {
		return errors.New("username required")
	}

	members, err := s.directory.ListByRoleAccount(ctx, account)
	if err != nil {
		return err
	}
	found := false
	for _, member := range members {
		if member.Username == username {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("username %q does not belong to role account %q", username, account)
	}

	seen := s.now()
	if err := s.feed.Publish(ctx, account, domain.DeviceHeartbeat{Username: username, LastSeenAt: seen}); err != nil {
		return err
	}

	if s.dispatcher != nil {
		event := events.Event{
			ID:          uuid.NewString(),
			Type:        events.EventHeartbeatRecorded,
			RoleAccount: account,
			Actor:       username,
			Timestamp:   seen,
			Payload:     events.HeartbeatRecordedPayload{Username: username, LastSeenAt: seen},
		}
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Debug("heartbeat event handlers failed", zap.Error(err))
		}
	}
	return nil
}
