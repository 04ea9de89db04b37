// Package main provides the player CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/isaibox/internal/api/connect"
	playerv1 "github.com/osa030/isaibox/internal/api/playerv1"
	"github.com/osa030/isaibox/internal/api/playerv1/playerv1connect"
)

var (
	app    = kingpin.New("isaibox", "isaibox player client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").Envar("ISAIBOX_SERVER").String()
	token  = app.Flag("token", "Control token (or set ISAIBOX_CONTROL_TOKEN env)").Envar("ISAIBOX_CONTROL_TOKEN").String()

	// list command
	listCmd = app.Command("list", "List the catalog").Alias("ls")

	// status command
	statusCmd = app.Command("status", "Show the player status")

	// select command
	selectCmd   = app.Command("select", "Select and play a track")
	selectIndex = selectCmd.Arg("index", "Track index (0-based)").Required().Int32()

	// toggle command
	toggleCmd = app.Command("toggle", "Toggle play/pause")

	// next command
	nextCmd = app.Command("next", "Skip to the next track")

	// seek command
	seekCmd      = app.Command("seek", "Seek within the current track")
	seekPosition = seekCmd.Arg("position", "Position, e.g. 1m30s").Required().Duration()

	// visible command
	visibleCmd = app.Command("visible", "Resume playback paused by the host")

	// subscribe command
	subscribeCmd = app.Command("subscribe", "Subscribe to notifications")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := playerv1connect.NewPlayerServiceClient(
		http.DefaultClient,
		*server,
	)

	ctx := context.Background()

	var err error
	switch command {
	case listCmd.FullCommand():
		err = list(ctx, client)
	case statusCmd.FullCommand():
		err = status(ctx, client)
	case selectCmd.FullCommand():
		err = selectTrack(ctx, client, *selectIndex)
	case toggleCmd.FullCommand():
		err = toggle(ctx, client)
	case nextCmd.FullCommand():
		err = next(ctx, client)
	case seekCmd.FullCommand():
		err = seek(ctx, client, *seekPosition)
	case visibleCmd.FullCommand():
		err = visible(ctx, client)
	case subscribeCmd.FullCommand():
		err = subscribe(ctx, client)
	}

	if err != nil {
		fmt.Printf("Error: %s\n", describeError(err))
		os.Exit(1)
	}
}

// authorized builds a request carrying the control token, if any.
func authorized[T any](msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if *token != "" {
		req.Header().Set(apiconnect.ControlTokenHeader, *token)
	}
	return req
}

func list(ctx context.Context, client *playerv1connect.PlayerServiceClient) error {
	resp, err := client.ListTracks(ctx, connect.NewRequest(&playerv1.ListTracksRequest{}))
	if err != nil {
		return err
	}
	fmt.Print(formatTracks(resp.Msg))
	return nil
}

func status(ctx context.Context, client *playerv1connect.PlayerServiceClient) error {
	resp, err := client.GetStatus(ctx, connect.NewRequest(&playerv1.GetStatusRequest{}))
	if err != nil {
		return err
	}
	fmt.Print(formatStatus(resp.Msg.Status))
	return nil
}

func selectTrack(ctx context.Context, client *playerv1connect.PlayerServiceClient, index int32) error {
	resp, err := client.SelectTrack(ctx, authorized(&playerv1.SelectTrackRequest{Index: index}))
	if err != nil {
		return err
	}
	fmt.Print(formatStatus(resp.Msg.Status))
	return nil
}

func toggle(ctx context.Context, client *playerv1connect.PlayerServiceClient) error {
	resp, err := client.TogglePlayPause(ctx, authorized(&playerv1.TogglePlayPauseRequest{}))
	if err != nil {
		return err
	}
	fmt.Print(formatStatus(resp.Msg.Status))
	return nil
}

func next(ctx context.Context, client *playerv1connect.PlayerServiceClient) error {
	resp, err := client.Next(ctx, authorized(&playerv1.NextRequest{}))
	if err != nil {
		return err
	}
	fmt.Print(formatStatus(resp.Msg.Status))
	return nil
}

func seek(ctx context.Context, client *playerv1connect.PlayerServiceClient, pos time.Duration) error {
	resp, err := client.Seek(ctx, authorized(&playerv1.SeekRequest{PositionMs: pos.Milliseconds()}))
	if err != nil {
		return err
	}
	fmt.Print(formatStatus(resp.Msg.Status))
	return nil
}

func visible(ctx context.Context, client *playerv1connect.PlayerServiceClient) error {
	resp, err := client.NotifyVisible(ctx, authorized(&playerv1.NotifyVisibleRequest{}))
	if err != nil {
		return err
	}
	fmt.Print(formatStatus(resp.Msg.Status))
	return nil
}

func subscribe(ctx context.Context, client *playerv1connect.PlayerServiceClient) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stream, err := client.Subscribe(ctx, connect.NewRequest(&playerv1.SubscribeRequest{}))
	if err != nil {
		return err
	}
	defer stream.Close()

	fmt.Println("Subscribed to notifications. Press Ctrl+C to exit.")

	for stream.Receive() {
		fmt.Print(formatNotification(stream.Msg()))
	}

	if ctx.Err() != nil {
		fmt.Println("\nUnsubscribing...")
		return nil
	}
	return stream.Err()
}
