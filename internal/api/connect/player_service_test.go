package connect

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	playerv1 "github.com/osa030/isaibox/internal/api/playerv1"
	"github.com/osa030/isaibox/internal/api/playerv1/playerv1connect"
	"github.com/osa030/isaibox/internal/app/notification"
	"github.com/osa030/isaibox/internal/app/playback"
	"github.com/osa030/isaibox/internal/audio"
	"github.com/osa030/isaibox/internal/audio/audiotest"
	"github.com/osa030/isaibox/internal/domain/playlist"
	"github.com/osa030/isaibox/internal/domain/track"
)

type testServer struct {
	client     *playerv1connect.PlayerServiceClient
	controller *playback.Controller
	notifier   *notification.Manager
	a, b       *audiotest.Handle
}

func newTestServer(t *testing.T, token string) *testServer {
	t.Helper()

	tracks := make([]track.Track, 3)
	for i := range tracks {
		tracks[i] = track.New(fmt.Sprintf("music/t%d.mp3", i), fmt.Sprintf("Track %d", i), "")
	}
	pl, err := playlist.New("test", tracks)
	require.NoError(t, err)

	a := audiotest.New("a")
	b := audiotest.New("b")
	controller := playback.NewController(playback.Config{StallThreshold: time.Second}, pl, [2]audio.Handle{a, b})
	notifier := notification.NewManager()

	svc := NewPlayerService(controller, notifier)
	go svc.Forward(controller.Events())

	path, handler := NewHandler(svc, token)
	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		notifier.Close()
		controller.Close()
		srv.Close()
	})
	require.Equal(t, "/"+playerv1connect.PlayerServiceName+"/", path)

	return &testServer{
		client:     playerv1connect.NewPlayerServiceClient(srv.Client(), srv.URL),
		controller: controller,
		notifier:   notifier,
		a:          a,
		b:          b,
	}
}

func withToken[T any](msg *T, token string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set(ControlTokenHeader, token)
	}
	return req
}

func TestPlayerService_ListTracks(t *testing.T) {
	ts := newTestServer(t, "")

	resp, err := ts.client.ListTracks(context.Background(), connect.NewRequest(&playerv1.ListTracksRequest{}))
	require.NoError(t, err)

	assert.Equal(t, "test", resp.Msg.Name)
	require.Len(t, resp.Msg.Tracks, 3)
	assert.Equal(t, int32(2), resp.Msg.Tracks[2].Index)
	assert.Equal(t, "music/t2.mp3", resp.Msg.Tracks[2].Path)
	assert.Equal(t, "Track 2", resp.Msg.Tracks[2].Label)
}

func TestPlayerService_SelectTrack(t *testing.T) {
	ts := newTestServer(t, "")
	ctx := context.Background()

	resp, err := ts.client.SelectTrack(ctx, connect.NewRequest(&playerv1.SelectTrackRequest{Index: 1}))
	require.NoError(t, err)

	status := resp.Msg.Status
	assert.Equal(t, int32(1), status.CurrentIndex)
	assert.True(t, status.IsPlaying)
	assert.False(t, status.Pending)
	assert.Equal(t, "music/t1.mp3", status.Track.Path)
	assert.Equal(t, "music/t2.mp3", status.Preloaded)
	assert.Equal(t, "armed", status.Watchdog)

	got, err := ts.client.GetStatus(ctx, connect.NewRequest(&playerv1.GetStatusRequest{}))
	require.NoError(t, err)
	assert.Equal(t, status.CurrentIndex, got.Msg.Status.CurrentIndex)
}

func TestPlayerService_ErrorCodes(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(ts *testServer)
		call    func(ts *testServer) error
		want    connect.Code
	}{
		{
			name: "out of range",
			call: func(ts *testServer) error {
				_, err := ts.client.SelectTrack(context.Background(), connect.NewRequest(&playerv1.SelectTrackRequest{Index: 9}))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name:    "playback blocked",
			prepare: func(ts *testServer) { ts.a.FailPlay(audio.ErrPlaybackBlocked) },
			call: func(ts *testServer) error {
				_, err := ts.client.TogglePlayPause(context.Background(), connect.NewRequest(&playerv1.TogglePlayPauseRequest{}))
				return err
			},
			want: connect.CodeFailedPrecondition,
		},
		{
			name: "negative seek",
			call: func(ts *testServer) error {
				_, err := ts.client.Seek(context.Background(), connect.NewRequest(&playerv1.SeekRequest{PositionMs: -1}))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, "")
			if tt.prepare != nil {
				tt.prepare(ts)
			}

			err := tt.call(ts)
			require.Error(t, err)
			assert.Equal(t, tt.want, connect.CodeOf(err))
		})
	}
}

func TestPlayerService_Transport(t *testing.T) {
	ts := newTestServer(t, "")
	ctx := context.Background()

	toggled, err := ts.client.TogglePlayPause(ctx, connect.NewRequest(&playerv1.TogglePlayPauseRequest{}))
	require.NoError(t, err)
	assert.True(t, toggled.Msg.Status.IsPlaying)
	assert.Equal(t, int32(0), toggled.Msg.Status.CurrentIndex)

	next, err := ts.client.Next(ctx, connect.NewRequest(&playerv1.NextRequest{}))
	require.NoError(t, err)
	assert.Equal(t, int32(1), next.Msg.Status.CurrentIndex)
	assert.Equal(t, int32(1), next.Msg.Status.ActiveSlot)

	seeked, err := ts.client.Seek(ctx, connect.NewRequest(&playerv1.SeekRequest{PositionMs: 1500}))
	require.NoError(t, err)
	assert.Equal(t, int64(1500), seeked.Msg.Status.PositionMs)

	ts.b.ExternalPause()
	visible, err := ts.client.NotifyVisible(ctx, connect.NewRequest(&playerv1.NotifyVisibleRequest{}))
	require.NoError(t, err)
	assert.True(t, visible.Msg.Status.IsPlaying)
	assert.False(t, ts.b.Paused())
}

func TestPlayerService_ControlToken(t *testing.T) {
	ts := newTestServer(t, "secret")
	ctx := context.Background()

	// Reads are open.
	_, err := ts.client.GetStatus(ctx, connect.NewRequest(&playerv1.GetStatusRequest{}))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  connect.Code
	}{
		{name: "missing", token: "", want: connect.CodeUnauthenticated},
		{name: "wrong", token: "guess", want: connect.CodeUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.client.TogglePlayPause(ctx, withToken(&playerv1.TogglePlayPauseRequest{}, tt.token))
			require.Error(t, err)
			assert.Equal(t, tt.want, connect.CodeOf(err))
		})
	}

	resp, err := ts.client.TogglePlayPause(ctx, withToken(&playerv1.TogglePlayPauseRequest{}, "secret"))
	require.NoError(t, err)
	assert.True(t, resp.Msg.Status.IsPlaying)
}

func TestPlayerService_Subscribe(t *testing.T) {
	ts := newTestServer(t, "")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := ts.client.Subscribe(ctx, connect.NewRequest(&playerv1.SubscribeRequest{}))
	require.NoError(t, err)
	defer stream.Close()

	require.True(t, stream.Receive(), "initial state: %v", stream.Err())
	initial := stream.Msg()
	assert.Equal(t, playerv1.NotificationTypeInitialState, initial.Type)
	assert.Equal(t, uint64(1), initial.SequenceNo)
	assert.False(t, initial.Status.IsPlaying)

	require.Eventually(t, func() bool { return ts.notifier.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)

	_, err = ts.client.SelectTrack(ctx, connect.NewRequest(&playerv1.SelectTrackRequest{Index: 2}))
	require.NoError(t, err)

	var got []*playerv1.Notification
	for len(got) < 2 && stream.Receive() {
		got = append(got, stream.Msg())
	}
	require.Len(t, got, 2)

	assert.Equal(t, playerv1.NotificationTypeIndexChanged, got[0].Type)
	assert.Equal(t, int32(2), got[0].Status.CurrentIndex)
	assert.Equal(t, playerv1.NotificationTypePlayingChanged, got[1].Type)
	assert.True(t, got[1].Status.IsPlaying)
	assert.Greater(t, got[1].SequenceNo, got[0].SequenceNo)
	assert.Greater(t, got[0].SequenceNo, initial.SequenceNo)
}
