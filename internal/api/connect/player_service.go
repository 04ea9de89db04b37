// Package connect provides Connect RPC service implementations.
package connect

import (
	"context"
	"time"

	"connectrpc.com/connect"
	zlog "github.com/rs/zerolog/log"

	playerv1 "github.com/osa030/isaibox/internal/api/playerv1"
	"github.com/osa030/isaibox/internal/api/playerv1/playerv1connect"
	"github.com/osa030/isaibox/internal/app/notification"
	"github.com/osa030/isaibox/internal/app/playback"
	"github.com/osa030/isaibox/internal/domain/playlist"
	"github.com/osa030/isaibox/internal/infra/metrics"
)

// Player is the playback surface exposed over RPC.
type Player interface {
	SelectTrack(ctx context.Context, index int) error
	TogglePlayPause(ctx context.Context) error
	AdvanceToNext(ctx context.Context) error
	Seek(pos time.Duration) error
	OnVisible(ctx context.Context) error
	Status() playback.Status
	Catalog() *playlist.Playlist
}

// PlayerService implements the PlayerService RPC.
type PlayerService struct {
	player   Player
	notifier *notification.Manager
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(player Player, notifier *notification.Manager) *PlayerService {
	return &PlayerService{
		player:   player,
		notifier: notifier,
	}
}

// Ensure PlayerService implements the interface.
var _ playerv1connect.PlayerServiceHandler = (*PlayerService)(nil)

// ListTracks returns the catalog.
func (s *PlayerService) ListTracks(
	ctx context.Context,
	req *connect.Request[playerv1.ListTracksRequest],
) (*connect.Response[playerv1.ListTracksResponse], error) {
	catalog := s.player.Catalog()
	return connect.NewResponse(&playerv1.ListTracksResponse{
		Name:   catalog.Name(),
		Tracks: toTracks(catalog),
	}), nil
}

// GetStatus returns the current player status.
func (s *PlayerService) GetStatus(
	ctx context.Context,
	req *connect.Request[playerv1.GetStatusRequest],
) (*connect.Response[playerv1.GetStatusResponse], error) {
	return connect.NewResponse(&playerv1.GetStatusResponse{
		Status: toStatus(s.player.Status()),
	}), nil
}

// SelectTrack selects and plays a track.
func (s *PlayerService) SelectTrack(
	ctx context.Context,
	req *connect.Request[playerv1.SelectTrackRequest],
) (*connect.Response[playerv1.SelectTrackResponse], error) {
	if err := s.player.SelectTrack(ctx, int(req.Msg.Index)); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&playerv1.SelectTrackResponse{
		Status: toStatus(s.player.Status()),
	}), nil
}

// TogglePlayPause pauses or resumes playback.
func (s *PlayerService) TogglePlayPause(
	ctx context.Context,
	req *connect.Request[playerv1.TogglePlayPauseRequest],
) (*connect.Response[playerv1.TogglePlayPauseResponse], error) {
	if err := s.player.TogglePlayPause(ctx); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&playerv1.TogglePlayPauseResponse{
		Status: toStatus(s.player.Status()),
	}), nil
}

// Next advances to the next track.
func (s *PlayerService) Next(
	ctx context.Context,
	req *connect.Request[playerv1.NextRequest],
) (*connect.Response[playerv1.NextResponse], error) {
	if err := s.player.AdvanceToNext(ctx); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&playerv1.NextResponse{
		Status: toStatus(s.player.Status()),
	}), nil
}

// Seek moves the position within the current track.
func (s *PlayerService) Seek(
	ctx context.Context,
	req *connect.Request[playerv1.SeekRequest],
) (*connect.Response[playerv1.SeekResponse], error) {
	if req.Msg.PositionMs < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errNegativePosition)
	}
	if err := s.player.Seek(time.Duration(req.Msg.PositionMs) * time.Millisecond); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&playerv1.SeekResponse{
		Status: toStatus(s.player.Status()),
	}), nil
}

// NotifyVisible resumes playback paused by the host.
func (s *PlayerService) NotifyVisible(
	ctx context.Context,
	req *connect.Request[playerv1.NotifyVisibleRequest],
) (*connect.Response[playerv1.NotifyVisibleResponse], error) {
	if err := s.player.OnVisible(ctx); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&playerv1.NotifyVisibleResponse{
		Status: toStatus(s.player.Status()),
	}), nil
}

// Subscribe streams the initial state followed by playback notifications.
func (s *PlayerService) Subscribe(
	ctx context.Context,
	req *connect.Request[playerv1.SubscribeRequest],
	stream *connect.ServerStream[playerv1.Notification],
) error {
	initial := s.notifier.Stamp(&playerv1.Notification{
		Type:   playerv1.NotificationTypeInitialState,
		Status: toStatus(s.player.Status()),
	})
	if err := stream.Send(initial); err != nil {
		return err
	}

	adapter := &notificationStreamAdapter{stream: stream}
	subscriptionID := s.notifier.Subscribe(adapter)
	metrics.NotificationSubscribers.Inc()
	defer func() {
		s.notifier.Unsubscribe(subscriptionID)
		metrics.NotificationSubscribers.Dec()
	}()

	// Wait for the client to go away or the daemon to stop
	select {
	case <-ctx.Done():
	case <-s.notifier.Done():
	}
	return nil
}

// Forward broadcasts playback events until events is closed.
func (s *PlayerService) Forward(events <-chan playback.Event) {
	for e := range events {
		n := toNotification(e, s.player.Status())
		if e.Type == playback.EventPlayFailed {
			zlog.Debug().Msgf("rpc: broadcasting %s: %s", n.Type, n.Error)
		}
		s.notifier.Broadcast(n)
	}
}

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
type notificationStreamAdapter struct {
	stream *connect.ServerStream[playerv1.Notification]
}

func (a *notificationStreamAdapter) Send(n *playerv1.Notification) error {
	return a.stream.Send(n)
}
