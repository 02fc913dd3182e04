package connect

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// GameServiceClient is a client for the GameService.
type GameServiceClient struct {
	play        *connect.Client[structpb.Struct, structpb.Struct]
	listHistory *connect.Client[emptypb.Empty, structpb.ListValue]
}

// NewGameServiceClient creates a client for the GameService at baseURL.
func NewGameServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GameServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &GameServiceClient{
		play:        connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+GameServicePlayProcedure, opts...),
		listHistory: connect.NewClient[emptypb.Empty, structpb.ListValue](httpClient, baseURL+GameServiceListHistoryProcedure, opts...),
	}
}

// Play calls GameService.Play.
func (c *GameServiceClient) Play(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	return c.play.CallUnary(ctx, req)
}

// ListHistory calls GameService.ListHistory.
func (c *GameServiceClient) ListHistory(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[structpb.ListValue], error) {
	return c.listHistory.CallUnary(ctx, req)
}
