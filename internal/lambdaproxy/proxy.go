// Package lambdaproxy serves the gin router from an API Gateway HTTP API
// (payload format 2.0) Lambda integration.
package lambdaproxy

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
)

type (
	Request  = events.APIGatewayV2HTTPRequest
	Response = events.APIGatewayV2HTTPResponse
)

// HandlerFunc is the signature lambda.Start expects for HTTP API events.
type HandlerFunc func(ctx context.Context, req Request) (Response, error)

// Handler adapts router once; the returned func is reused across invocations.
func Handler(router *gin.Engine) HandlerFunc {
	adapter := ginadapter.NewV2(router)
	return func(ctx context.Context, req Request) (Response, error) {
		return adapter.ProxyWithContext(ctx, req)
	}
}
