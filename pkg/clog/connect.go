package clog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

type connectConfig struct {
	Filter func(spec connect.Spec) bool
}

type ConnectOption interface {
	apply(*connectConfig)
}

type connectOptionFunc func(*connectConfig)

func (o connectOptionFunc) apply(c *connectConfig) {
	o(c)
}

func WithConnectFilter(filter func(connect.Spec) bool) ConnectOption {
	return connectOptionFunc(func(cfg *connectConfig) {
		cfg.Filter = filter
	})
}

func DefaultConnectHealthCheckFilter(spec connect.Spec) bool {
	return spec.Procedure != "/grpc.health.v1.Health/Check"
}

type slogConnectInterceptor struct {
	cfg connectConfig
}

// NewSlogConnectInterceptor logs one line per unary call at a level derived
// from the connect code. Streams pass through.
func NewSlogConnectInterceptor(opts ...ConnectOption) connect.Interceptor {
	cfg := connectConfig{}
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	return &slogConnectInterceptor{cfg: cfg}
}

func (s *slogConnectInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		startTime := time.Now()
		newCtx := ContextWithSlog(ctx)
		AddAttributes(newCtx, map[string]any{
			"method":    req.HTTPMethod(),
			"procedure": req.Spec().Procedure,
		})
		resp, err := next(newCtx, req)
		if s.cfg.Filter != nil && !s.cfg.Filter(req.Spec()) {
			return resp, err
		}

		code := "ok"
		level := LevelInfo
		msg := "Finished"
		if err != nil {
			var cErr *connect.Error
			if !errors.As(err, &cErr) {
				cErr = connect.NewError(connect.CodeUnknown, err)
			}
			code = cErr.Code().String()
			level = ConnectCodeToLevel(cErr.Code())
			msg = cErr.Message()
		}
		AddAttributes(newCtx, map[string]any{
			"code":     code,
			"duration": time.Since(startTime),
		})
		slog.Log(newCtx, level.Slog(), msg)
		return resp, err
	}
}

func (s *slogConnectInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (s *slogConnectInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return next
}
