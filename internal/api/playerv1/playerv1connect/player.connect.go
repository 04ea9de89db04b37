// Package playerv1connect wires the isaibox.player.v1 PlayerService to
// connect handlers and clients.
package playerv1connect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	playerv1 "github.com/osa030/isaibox/internal/api/playerv1"
)

// PlayerServiceName is the fully-qualified name of the PlayerService service.
const PlayerServiceName = "isaibox.player.v1.PlayerService"

// Procedure names of the PlayerService RPCs.
const (
	PlayerServiceListTracksProcedure      = "/isaibox.player.v1.PlayerService/ListTracks"
	PlayerServiceGetStatusProcedure       = "/isaibox.player.v1.PlayerService/GetStatus"
	PlayerServiceSelectTrackProcedure     = "/isaibox.player.v1.PlayerService/SelectTrack"
	PlayerServiceTogglePlayPauseProcedure = "/isaibox.player.v1.PlayerService/TogglePlayPause"
	PlayerServiceNextProcedure            = "/isaibox.player.v1.PlayerService/Next"
	PlayerServiceSeekProcedure            = "/isaibox.player.v1.PlayerService/Seek"
	PlayerServiceNotifyVisibleProcedure   = "/isaibox.player.v1.PlayerService/NotifyVisible"
	PlayerServiceSubscribeProcedure       = "/isaibox.player.v1.PlayerService/Subscribe"
)

// MutatingProcedures are the procedures that change playback.
var MutatingProcedures = map[string]bool{
	PlayerServiceSelectTrackProcedure:     true,
	PlayerServiceTogglePlayPauseProcedure: true,
	PlayerServiceNextProcedure:            true,
	PlayerServiceSeekProcedure:            true,
	PlayerServiceNotifyVisibleProcedure:   true,
}

// PlayerServiceHandler is implemented by the server.
type PlayerServiceHandler interface {
	ListTracks(context.Context, *connect.Request[playerv1.ListTracksRequest]) (*connect.Response[playerv1.ListTracksResponse], error)
	GetStatus(context.Context, *connect.Request[playerv1.GetStatusRequest]) (*connect.Response[playerv1.GetStatusResponse], error)
	SelectTrack(context.Context, *connect.Request[playerv1.SelectTrackRequest]) (*connect.Response[playerv1.SelectTrackResponse], error)
	TogglePlayPause(context.Context, *connect.Request[playerv1.TogglePlayPauseRequest]) (*connect.Response[playerv1.TogglePlayPauseResponse], error)
	Next(context.Context, *connect.Request[playerv1.NextRequest]) (*connect.Response[playerv1.NextResponse], error)
	Seek(context.Context, *connect.Request[playerv1.SeekRequest]) (*connect.Response[playerv1.SeekResponse], error)
	NotifyVisible(context.Context, *connect.Request[playerv1.NotifyVisibleRequest]) (*connect.Response[playerv1.NotifyVisibleResponse], error)
	Subscribe(context.Context, *connect.Request[playerv1.SubscribeRequest], *connect.ServerStream[playerv1.Notification]) error
}

// NewPlayerServiceHandler builds an HTTP handler for svc. It returns the
// path to mount the handler on.
func NewPlayerServiceHandler(svc PlayerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(playerv1.Codec{})}, opts...)

	handlers := map[string]http.Handler{
		PlayerServiceListTracksProcedure:      connect.NewUnaryHandler(PlayerServiceListTracksProcedure, svc.ListTracks, opts...),
		PlayerServiceGetStatusProcedure:       connect.NewUnaryHandler(PlayerServiceGetStatusProcedure, svc.GetStatus, opts...),
		PlayerServiceSelectTrackProcedure:     connect.NewUnaryHandler(PlayerServiceSelectTrackProcedure, svc.SelectTrack, opts...),
		PlayerServiceTogglePlayPauseProcedure: connect.NewUnaryHandler(PlayerServiceTogglePlayPauseProcedure, svc.TogglePlayPause, opts...),
		PlayerServiceNextProcedure:            connect.NewUnaryHandler(PlayerServiceNextProcedure, svc.Next, opts...),
		PlayerServiceSeekProcedure:            connect.NewUnaryHandler(PlayerServiceSeekProcedure, svc.Seek, opts...),
		PlayerServiceNotifyVisibleProcedure:   connect.NewUnaryHandler(PlayerServiceNotifyVisibleProcedure, svc.NotifyVisible, opts...),
		PlayerServiceSubscribeProcedure:       connect.NewServerStreamHandler(PlayerServiceSubscribeProcedure, svc.Subscribe, opts...),
	}

	return "/" + PlayerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// PlayerServiceClient calls PlayerService.
type PlayerServiceClient struct {
	listTracks      *connect.Client[playerv1.ListTracksRequest, playerv1.ListTracksResponse]
	getStatus       *connect.Client[playerv1.GetStatusRequest, playerv1.GetStatusResponse]
	selectTrack     *connect.Client[playerv1.SelectTrackRequest, playerv1.SelectTrackResponse]
	togglePlayPause *connect.Client[playerv1.TogglePlayPauseRequest, playerv1.TogglePlayPauseResponse]
	next            *connect.Client[playerv1.NextRequest, playerv1.NextResponse]
	seek            *connect.Client[playerv1.SeekRequest, playerv1.SeekResponse]
	notifyVisible   *connect.Client[playerv1.NotifyVisibleRequest, playerv1.NotifyVisibleResponse]
	subscribe       *connect.Client[playerv1.SubscribeRequest, playerv1.Notification]
}

// NewPlayerServiceClient creates a client for the service at baseURL
// (for example http://localhost:8080).
func NewPlayerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PlayerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(playerv1.Codec{})}, opts...)

	return &PlayerServiceClient{
		listTracks:      connect.NewClient[playerv1.ListTracksRequest, playerv1.ListTracksResponse](httpClient, baseURL+PlayerServiceListTracksProcedure, opts...),
		getStatus:       connect.NewClient[playerv1.GetStatusRequest, playerv1.GetStatusResponse](httpClient, baseURL+PlayerServiceGetStatusProcedure, opts...),
		selectTrack:     connect.NewClient[playerv1.SelectTrackRequest, playerv1.SelectTrackResponse](httpClient, baseURL+PlayerServiceSelectTrackProcedure, opts...),
		togglePlayPause: connect.NewClient[playerv1.TogglePlayPauseRequest, playerv1.TogglePlayPauseResponse](httpClient, baseURL+PlayerServiceTogglePlayPauseProcedure, opts...),
		next:            connect.NewClient[playerv1.NextRequest, playerv1.NextResponse](httpClient, baseURL+PlayerServiceNextProcedure, opts...),
		seek:            connect.NewClient[playerv1.SeekRequest, playerv1.SeekResponse](httpClient, baseURL+PlayerServiceSeekProcedure, opts...),
		notifyVisible:   connect.NewClient[playerv1.NotifyVisibleRequest, playerv1.NotifyVisibleResponse](httpClient, baseURL+PlayerServiceNotifyVisibleProcedure, opts...),
		subscribe:       connect.NewClient[playerv1.SubscribeRequest, playerv1.Notification](httpClient, baseURL+PlayerServiceSubscribeProcedure, opts...),
	}
}

// ListTracks calls isaibox.player.v1.PlayerService.ListTracks.
func (c *PlayerServiceClient) ListTracks(ctx context.Context, req *connect.Request[playerv1.ListTracksRequest]) (*connect.Response[playerv1.ListTracksResponse], error) {
	return c.listTracks.CallUnary(ctx, req)
}

// GetStatus calls isaibox.player.v1.PlayerService.GetStatus.
func (c *PlayerServiceClient) GetStatus(ctx context.Context, req *connect.Request[playerv1.GetStatusRequest]) (*connect.Response[playerv1.GetStatusResponse], error) {
	return c.getStatus.CallUnary(ctx, req)
}

// SelectTrack calls isaibox.player.v1.PlayerService.SelectTrack.
func (c *PlayerServiceClient) SelectTrack(ctx context.Context, req *connect.Request[playerv1.SelectTrackRequest]) (*connect.Response[playerv1.SelectTrackResponse], error) {
	return c.selectTrack.CallUnary(ctx, req)
}

// TogglePlayPause calls isaibox.player.v1.PlayerService.TogglePlayPause.
func (c *PlayerServiceClient) TogglePlayPause(ctx context.Context, req *connect.Request[playerv1.TogglePlayPauseRequest]) (*connect.Response[playerv1.TogglePlayPauseResponse], error) {
	return c.togglePlayPause.CallUnary(ctx, req)
}

// Next calls isaibox.player.v1.PlayerService.Next.
func (c *PlayerServiceClient) Next(ctx context.Context, req *connect.Request[playerv1.NextRequest]) (*connect.Response[playerv1.NextResponse], error) {
	return c.next.CallUnary(ctx, req)
}

// Seek calls isaibox.player.v1.PlayerService.Seek.
func (c *PlayerServiceClient) Seek(ctx context.Context, req *connect.Request[playerv1.SeekRequest]) (*connect.Response[playerv1.SeekResponse], error) {
	return c.seek.CallUnary(ctx, req)
}

// NotifyVisible calls isaibox.player.v1.PlayerService.NotifyVisible.
func (c *PlayerServiceClient) NotifyVisible(ctx context.Context, req *connect.Request[playerv1.NotifyVisibleRequest]) (*connect.Response[playerv1.NotifyVisibleResponse], error) {
	return c.notifyVisible.CallUnary(ctx, req)
}

// Subscribe calls isaibox.player.v1.PlayerService.Subscribe.
func (c *PlayerServiceClient) Subscribe(ctx context.Context, req *connect.Request[playerv1.SubscribeRequest]) (*connect.ServerStreamForClient[playerv1.Notification], error) {
	return c.subscribe.CallServerStream(ctx, req)
}
