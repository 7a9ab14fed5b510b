package lambda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/a-pavithraa/lambda-helper/common"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"go.uber.org/zap"
)

const serviceName = "ServiceWrapper"

func actionName(method string) string {
	return serviceName + "." + method
}

func resolveRegion(opts *Options) string {
	if opts == nil {
		return DefaultRegion
	}
	region := opts.Region
	if common.TrimAndCheckEmptyString(&region) {
		return DefaultRegion
	}
	return region
}

// Client builds a Lambda client from the default credential chain.
func Client(ctx context.Context, opts *Options) (*lambda.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(resolveRegion(opts)))
	if err != nil {
		return nil, err
	}
	return lambda.NewFromConfig(cfg), nil
}

// New returns a wrapper over client, or over a default client built from opts when client is nil.
func New(ctx context.Context, logger *zap.Logger, client FunctionApi, opts *Options) (*ServiceWrapper, error) {
	if client == nil {
		c, err := Client(ctx, opts)
		if err != nil {
			return nil, err
		}
		client = c
	}
	return &ServiceWrapper{
		Client: client,
		Tracer: common.NewTracer(logger),
	}, nil
}

func (wrapper ServiceWrapper) EnableDynamoEventSourceMapping(ctx context.Context, functionName, uuid string, batchSize int32) (*lambda.UpdateEventSourceMappingOutput, error) {
	return wrapper.setState(ctx, actionName("EnableDynamoEventSourceMapping"), common.Dynamo, functionName, uuid, true, batchSize)
}

func (wrapper ServiceWrapper) EnableKinesisEventSourceMapping(ctx context.Context, functionName, uuid string, batchSize int32) (*lambda.UpdateEventSourceMappingOutput, error) {
	return wrapper.setState(ctx, actionName("EnableKinesisEventSourceMapping"), common.Kinesis, functionName, uuid, true, batchSize)
}

func (wrapper ServiceWrapper) EnableSQSEventSourceMapping(ctx context.Context, functionName, uuid string, batchSize int32) (*lambda.UpdateEventSourceMappingOutput, error) {
	return wrapper.setState(ctx, actionName("EnableSQSEventSourceMapping"), common.SQS, functionName, uuid, true, batchSize)
}

func (wrapper ServiceWrapper) DisableDynamoEventSourceMapping(ctx context.Context, functionName, uuid string, batchSize int32) (*lambda.UpdateEventSourceMappingOutput, error) {
	return wrapper.setState(ctx, actionName("DisableDynamoEventSourceMapping"), common.Dynamo, functionName, uuid, false, batchSize)
}

func (wrapper ServiceWrapper) DisableKinesisEventSourceMapping(ctx context.Context, functionName, uuid string, batchSize int32) (*lambda.UpdateEventSourceMappingOutput, error) {
	return wrapper.setState(ctx, actionName("DisableKinesisEventSourceMapping"), common.Kinesis, functionName, uuid, false, batchSize)
}

func (wrapper ServiceWrapper) DisableSQSEventSourceMapping(ctx context.Context, functionName, uuid string, batchSize int32) (*lambda.UpdateEventSourceMappingOutput, error) {
	return wrapper.setState(ctx, actionName("DisableSQSEventSourceMapping"), common.SQS, functionName, uuid, false, batchSize)
}

// SetEventSourceMappingState turns a mapping on or off. A batchSize of zero or less
// falls back to the default for kind.
func (wrapper ServiceWrapper) SetEventSourceMappingState(ctx context.Context, kind common.SourceKind, functionName, uuid string, enabled bool, batchSize int32) (*lambda.UpdateEventSourceMappingOutput, error) {
	return wrapper.setState(ctx, actionName("SetEventSourceMappingState"), kind, functionName, uuid, enabled, batchSize)
}

func (wrapper ServiceWrapper) setState(ctx context.Context, action string, kind common.SourceKind, functionName, uuid string, enabled bool, batchSize int32) (*lambda.UpdateEventSourceMappingOutput, error) {
	if batchSize <= 0 {
		batchSize = kind.DefaultBatchSize()
	}
	return wrapper.update(ctx, action, functionName, enabled, uuid, batchSize)
}

// UpdateEventSourceMapping passes enabled and batchSize through unchecked.
func (wrapper ServiceWrapper) UpdateEventSourceMapping(ctx context.Context, functionName string, enabled bool, uuid string, batchSize int32) (*lambda.UpdateEventSourceMappingOutput, error) {
	return wrapper.update(ctx, actionName("UpdateEventSourceMapping"), functionName, enabled, uuid, batchSize)
}

func (wrapper ServiceWrapper) update(ctx context.Context, action, functionName string, enabled bool, uuid string, batchSize int32) (*lambda.UpdateEventSourceMappingOutput, error) {
	wrapper.Tracer.LogInputs(action, map[string]interface{}{
		"functionName": functionName,
		"enabled":      enabled,
		"uuid":         uuid,
		"batchSize":    batchSize,
	})

	if err := common.RequireFields(action, "functionName", functionName, "uuid", uuid); err != nil {
		return nil, err
	}

	input := &lambda.UpdateEventSourceMappingInput{
		BatchSize:    aws.Int32(batchSize),
		Enabled:      aws.Bool(enabled),
		FunctionName: aws.String(functionName),
		UUID:         aws.String(uuid),
	}
	wrapper.Tracer.LogRequest(action, input)

	resp, err := wrapper.Client.UpdateEventSourceMapping(ctx, input)
	if err != nil {
		return nil, err
	}
	wrapper.Tracer.LogResponse(action, resp)

	return resp, nil
}

func (wrapper ServiceWrapper) GetEventSourceMapping(ctx context.Context, uuid string) (*lambda.GetEventSourceMappingOutput, error) {
	action := actionName("GetEventSourceMapping")
	wrapper.Tracer.LogInputs(action, map[string]interface{}{"uuid": uuid})

	if err := common.RequireFields(action, "uuid", uuid); err != nil {
		return nil, err
	}

	input := &lambda.GetEventSourceMappingInput{
		UUID: aws.String(uuid),
	}
	wrapper.Tracer.LogRequest(action, input)

	resp, err := wrapper.Client.GetEventSourceMapping(ctx, input)
	if err != nil {
		return nil, err
	}
	wrapper.Tracer.LogResponse(action, resp)

	return resp, nil
}

// ListEventSourceMappings returns one page; follow NextMarker on the output for more.
func (wrapper ServiceWrapper) ListEventSourceMappings(ctx context.Context, functionName, eventSourceArn string) (*lambda.ListEventSourceMappingsOutput, error) {
	action := actionName("ListEventSourceMappings")
	wrapper.Tracer.LogInputs(action, map[string]interface{}{
		"functionName":   functionName,
		"eventSourceArn": eventSourceArn,
	})

	if err := common.RequireFields(action, "functionName", functionName, "eventSourceArn", eventSourceArn); err != nil {
		return nil, err
	}

	input := &lambda.ListEventSourceMappingsInput{
		EventSourceArn: aws.String(eventSourceArn),
		FunctionName:   aws.String(functionName),
	}
	wrapper.Tracer.LogRequest(action, input)

	resp, err := wrapper.Client.ListEventSourceMappings(ctx, input)
	if err != nil {
		return nil, err
	}
	wrapper.Tracer.LogResponse(action, resp)

	return resp, nil
}

// CreateEventSourceMapping leaves BatchSize and StartingPosition to the provider
// defaults when they are not set.
func (wrapper ServiceWrapper) CreateEventSourceMapping(ctx context.Context, functionName, eventSourceArn string, enabled bool, batchSize int32, startingPosition types.EventSourcePosition) (*lambda.CreateEventSourceMappingOutput, error) {
	action := actionName("CreateEventSourceMapping")
	wrapper.Tracer.LogInputs(action, map[string]interface{}{
		"functionName":     functionName,
		"eventSourceArn":   eventSourceArn,
		"enabled":          enabled,
		"batchSize":        batchSize,
		"startingPosition": startingPosition,
	})

	if err := common.RequireFields(action, "functionName", functionName, "eventSourceArn", eventSourceArn); err != nil {
		return nil, err
	}

	input := &lambda.CreateEventSourceMappingInput{
		Enabled:          aws.Bool(enabled),
		EventSourceArn:   aws.String(eventSourceArn),
		FunctionName:     aws.String(functionName),
		StartingPosition: startingPosition,
	}
	if batchSize > 0 {
		input.BatchSize = aws.Int32(batchSize)
	}
	wrapper.Tracer.LogRequest(action, input)

	resp, err := wrapper.Client.CreateEventSourceMapping(ctx, input)
	if err != nil {
		return nil, err
	}
	wrapper.Tracer.LogResponse(action, resp)

	return resp, nil
}

func (wrapper ServiceWrapper) DeleteEventSourceMapping(ctx context.Context, uuid string) (*lambda.DeleteEventSourceMappingOutput, error) {
	action := actionName("DeleteEventSourceMapping")
	wrapper.Tracer.LogInputs(action, map[string]interface{}{"uuid": uuid})

	if err := common.RequireFields(action, "uuid", uuid); err != nil {
		return nil, err
	}

	input := &lambda.DeleteEventSourceMappingInput{
		UUID: aws.String(uuid),
	}
	wrapper.Tracer.LogRequest(action, input)

	resp, err := wrapper.Client.DeleteEventSourceMapping(ctx, input)
	if err != nil {
		return nil, err
	}
	wrapper.Tracer.LogResponse(action, resp)

	return resp, nil
}

// InvokeSync waits for the function result. A FunctionError in the output is not an error here.
func (wrapper ServiceWrapper) InvokeSync(ctx context.Context, functionName string, payload interface{}) (*lambda.InvokeOutput, error) {
	action := actionName("InvokeSync")
	wrapper.Tracer.LogInputs(action, map[string]interface{}{
		"functionName": functionName,
		"payload":      payload,
	})

	if err := common.RequireFields(action, "functionName", functionName); err != nil {
		return nil, err
	}

	body, err := marshalPayload(action, payload)
	if err != nil {
		return nil, err
	}

	input := &lambda.InvokeInput{
		FunctionName:   aws.String(functionName),
		InvocationType: types.InvocationTypeRequestResponse,
		Payload:        body,
	}
	wrapper.Tracer.LogRequest(action, input)

	resp, err := wrapper.Client.Invoke(ctx, input)
	if err != nil {
		return nil, err
	}
	wrapper.Tracer.LogResponse(action, resp)

	return resp, nil
}

// InvokeAsync returns once the invocation is queued.
func (wrapper ServiceWrapper) InvokeAsync(ctx context.Context, functionName string, payload interface{}) (*lambda.InvokeAsyncOutput, error) {
	action := actionName("InvokeAsync")
	wrapper.Tracer.LogInputs(action, map[string]interface{}{
		"functionName": functionName,
		"payload":      payload,
	})

	if err := common.RequireFields(action, "functionName", functionName); err != nil {
		return nil, err
	}

	body, err := marshalPayload(action, payload)
	if err != nil {
		return nil, err
	}

	input := &lambda.InvokeAsyncInput{
		FunctionName: aws.String(functionName),
		InvokeArgs:   bytes.NewReader(body),
	}
	wrapper.Tracer.LogRequest(action, input)

	resp, err := wrapper.Client.InvokeAsync(ctx, input)
	if err != nil {
		return nil, err
	}
	wrapper.Tracer.LogResponse(action, resp)

	return resp, nil
}

func marshalPayload(action string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("[%s]-Could not serialize payload: %w", action, err)
	}
	return body, nil
}
