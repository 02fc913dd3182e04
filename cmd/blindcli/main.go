// Package main provides the command line client.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	apiconnect "github.com/osa030/blindtest/internal/api/connect"
)

var (
	app    = kingpin.New("blindcli", "Blind test command line client")
	server = app.Flag("server", "Server address").Default("http://localhost:5000").String()

	// play command
	playCmd      = app.Command("play", "Play a round")
	playDuration = playCmd.Flag("duration", "Clip duration in seconds (server default when 0)").Int()
	playFull     = playCmd.Flag("full", "Serve the whole track").Bool()
	playPlaylist = playCmd.Flag("playlist", "Spotify playlist URL").String()
	playReveal   = playCmd.Flag("reveal", "Print the answer").Bool()

	// history command
	historyCmd = app.Command("history", "Show recently played tracks")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Create client
	client := apiconnect.NewGameServiceClient(http.DefaultClient, *server)

	ctx := context.Background()

	// Execute command
	switch command {
	case playCmd.FullCommand():
		play(ctx, client)
	case historyCmd.FullCommand():
		listHistory(ctx, client)
	}
}

func play(ctx context.Context, client *apiconnect.GameServiceClient) {
	fields := map[string]any{"full": *playFull}
	if *playDuration > 0 {
		fields["duration"] = *playDuration
	}
	if *playPlaylist != "" {
		fields["playlist"] = *playPlaylist
	}
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	resp, err := client.Play(ctx, connect.NewRequest(msg))
	if err != nil {
		var cerr *connect.Error
		if errors.As(err, &cerr) {
			fmt.Fprintf(os.Stderr, "Error: %s (code: %s)\n", cerr.Message(), cerr.Meta().Get(apiconnect.ErrorCodeHeader))
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}

	out := resp.Msg.GetFields()
	fmt.Printf("Clip ready: %s%s\n", *server, out["audio_url"].GetStringValue())
	if *playReveal {
		fmt.Printf("Answer: %s - %s\n", out["title"].GetStringValue(), out["artist"].GetStringValue())
		fmt.Printf("Source: %s\n", out["media_url"].GetStringValue())
	}
}

func listHistory(ctx context.Context, client *apiconnect.GameServiceClient) {
	resp, err := client.ListHistory(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	values := resp.Msg.GetValues()
	if len(values) == 0 {
		fmt.Println("No tracks played yet")
		return
	}
	for _, v := range values {
		f := v.GetStructValue().GetFields()
		fmt.Printf("%s  %s - %s\n",
			f["timestamp"].GetStringValue(),
			f["title"].GetStringValue(),
			f["artist"].GetStringValue())
	}
}
