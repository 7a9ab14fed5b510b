package lambda

import (
	"context"

	"github.com/a-pavithraa/lambda-helper/common"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
)

const DefaultRegion = "us-east-1"

// FunctionApi is the part of *lambda.Client the wrapper calls.
type FunctionApi interface {
	GetEventSourceMapping(ctx context.Context, params *lambda.GetEventSourceMappingInput, optFns ...func(*lambda.Options)) (*lambda.GetEventSourceMappingOutput, error)
	ListEventSourceMappings(ctx context.Context, params *lambda.ListEventSourceMappingsInput, optFns ...func(*lambda.Options)) (*lambda.ListEventSourceMappingsOutput, error)
	CreateEventSourceMapping(ctx context.Context, params *lambda.CreateEventSourceMappingInput, optFns ...func(*lambda.Options)) (*lambda.CreateEventSourceMappingOutput, error)
	UpdateEventSourceMapping(ctx context.Context, params *lambda.UpdateEventSourceMappingInput, optFns ...func(*lambda.Options)) (*lambda.UpdateEventSourceMappingOutput, error)
	DeleteEventSourceMapping(ctx context.Context, params *lambda.DeleteEventSourceMappingInput, optFns ...func(*lambda.Options)) (*lambda.DeleteEventSourceMappingOutput, error)
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
	InvokeAsync(ctx context.Context, params *lambda.InvokeAsyncInput, optFns ...func(*lambda.Options)) (*lambda.InvokeAsyncOutput, error)
}

// Options configures the client built when none is injected.
type Options struct {
	Region string
}

type ServiceWrapper struct {
	Client FunctionApi
	Tracer common.Tracer
}
