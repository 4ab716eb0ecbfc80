package cerr

import (
	"context"

	"connectrpc.com/connect"
)

// NewConvertConnectErrorInterceptor turns errors from unary handlers into
// connect errors carrying the matching code, and records them on the request
// log context. Streaming calls pass through untouched.
func NewConvertConnectErrorInterceptor() connect.Interceptor {
	return connect.UnaryInterceptorFunc(func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			resp, err := next(ctx, req)
			if err == nil {
				return resp, nil
			}
			return resp, ExtractConnectError(ctx, err)
		}
	})
}
