// Package connect provides Connect RPC service implementations.
package connect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/blindtest/internal/app/round"
	"github.com/osa030/blindtest/internal/domain/game"
	"github.com/osa030/blindtest/internal/domain/history"
)

const (
	// GameServiceName is the fully-qualified name of the GameService.
	GameServiceName = "blindtest.v1.GameService"

	// GameServicePlayProcedure is the path of the Play RPC.
	GameServicePlayProcedure = "/" + GameServiceName + "/Play"
	// GameServiceListHistoryProcedure is the path of the ListHistory RPC.
	GameServiceListHistoryProcedure = "/" + GameServiceName + "/ListHistory"

	// ErrorCodeHeader carries the domain failure code on RPC errors.
	ErrorCodeHeader = "X-Blindtest-Code"
)

// Player runs a round.
type Player interface {
	Play(ctx context.Context, req round.PlayRequest) (*round.PlayResult, error)
}

// HistoryLister lists served tracks, newest first.
type HistoryLister interface {
	List() []history.Entry
}

// GameService implements the GameService RPC.
type GameService struct {
	player          Player
	history         HistoryLister
	defaultDuration int
	defaultPlaylist string
}

// NewGameService creates a new GameService.
func NewGameService(player Player, historyLister HistoryLister, defaultDuration int, defaultPlaylist string) *GameService {
	if defaultDuration <= 0 {
		defaultDuration = 3
	}
	return &GameService{
		player:          player,
		history:         historyLister,
		defaultDuration: defaultDuration,
		defaultPlaylist: defaultPlaylist,
	}
}

// NewGameServiceHandler builds an HTTP handler serving the GameService.
// It returns the path to mount it on.
func NewGameServiceHandler(svc *GameService, opts ...connect.HandlerOption) (string, http.Handler) {
	playHandler := connect.NewUnaryHandler(GameServicePlayProcedure, svc.Play, opts...)
	listHistoryHandler := connect.NewUnaryHandler(GameServiceListHistoryProcedure, svc.ListHistory, opts...)

	return "/" + GameServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case GameServicePlayProcedure:
			playHandler.ServeHTTP(w, r)
		case GameServiceListHistoryProcedure:
			listHistoryHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// Play handles round requests. Fields: duration (number), full (bool), playlist (string).
func (s *GameService) Play(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	fields := req.Msg.GetFields()

	playReq := round.PlayRequest{
		PlaylistRef:     s.defaultPlaylist,
		DurationSeconds: s.defaultDuration,
	}
	if v, ok := fields["duration"]; ok {
		if _, isNumber := v.GetKind().(*structpb.Value_NumberValue); !isNumber {
			return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("duration must be a number"))
		}
		playReq.DurationSeconds = int(v.GetNumberValue())
	}
	if v, ok := fields["full"]; ok {
		playReq.Full = v.GetBoolValue()
	}
	if v := strings.TrimSpace(fields["playlist"].GetStringValue()); v != "" {
		playReq.PlaylistRef = v
	}

	res, err := s.player.Play(ctx, playReq)
	if err != nil {
		return nil, toConnectError(err)
	}

	out, err := structpb.NewStruct(map[string]any{
		"success":    true,
		"request_id": res.RequestID,
		"filename":   res.Filename,
		"audio_url":  res.AudioURL,
		"title":      res.Title,
		"artist":     res.Artist,
		"thumbnail":  res.Thumbnail,
		"media_url":  res.Media.Link,
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}

// ListHistory returns the served tracks, newest first.
func (s *GameService) ListHistory(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.ListValue], error) {
	entries := s.history.List()
	items := make([]any, 0, len(entries))
	for _, e := range entries {
		items = append(items, map[string]any{
			"title":     e.Title,
			"artist":    e.Artist,
			"thumbnail": e.Thumbnail,
			"timestamp": e.FormattedTimestamp(),
		})
	}

	list, err := structpb.NewList(items)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(list), nil
}

// toConnectError maps a round failure to an RPC error carrying only its message.
func toConnectError(err error) *connect.Error {
	code := game.Code(err)

	var rpcCode connect.Code
	switch code {
	case game.CodeEmptyCatalog, game.CodeNoMediaFound:
		rpcCode = connect.CodeNotFound
	case game.CodeCatalogUnavailable, game.CodeDownloadFailed:
		rpcCode = connect.CodeUnavailable
	case game.CodeAuthRequired, game.CodeClipTooShort:
		rpcCode = connect.CodeFailedPrecondition
	default:
		rpcCode = connect.CodeInternal
	}

	cerr := connect.NewError(rpcCode, errors.New(err.Error()))
	cerr.Meta().Set(ErrorCodeHeader, code)
	return cerr
}
