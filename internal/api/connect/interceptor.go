package connect

import (
	"context"
	"time"

	"connectrpc.com/connect"
	zlog "github.com/rs/zerolog/log"
)

// NewLoggingInterceptor creates an interceptor that logs every unary call
// with its outcome and elapsed time.
func NewLoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			res, err := next(ctx, req)

			elapsed := time.Since(start)
			if err != nil {
				zlog.Warn().Msgf("rpc failed: procedure=%s peer=%s code=%s elapsed=%s error=%v",
					req.Spec().Procedure, req.Peer().Addr, connect.CodeOf(err), elapsed, err)
				return nil, err
			}
			zlog.Info().Msgf("rpc: procedure=%s peer=%s elapsed=%s", req.Spec().Procedure, req.Peer().Addr, elapsed)
			return res, nil
		}
	}
}
