package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/a-pavithraa/lambda-helper/common"
	helperiam "github.com/a-pavithraa/lambda-helper/iam"
	helperlambda "github.com/a-pavithraa/lambda-helper/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runParams(t *testing.T, args ...string) (*common.MappingParams, error) {
	var params *common.MappingParams
	action := func(cCtx *cli.Context) error {
		var err error
		params, err = SetMappingParams(cCtx)
		return err
	}
	app := &cli.App{
		Commands: []*cli.Command{
			command("enable_mapping", "em", "", action, nameFlag(), uuidFlag(), sourceFlag(common.SQS), batchSizeFlag()),
		},
	}
	err := app.Run(append([]string{"lambda-helper", "enable_mapping"}, args...))
	return params, err
}

func TestSetMappingParams(t *testing.T) {
	params, err := runParams(t, "--name", "fn", "--uuid", "abc-123", "--source", "kinesis", "--batch_size", "25")
	require.NoError(t, err)
	assert.Equal(t, "fn", params.FunctionName)
	assert.Equal(t, "abc-123", params.Uuid)
	assert.Equal(t, common.Kinesis, params.Source)
	assert.EqualValues(t, 25, params.BatchSize)
	assert.Equal(t, "us-east-1", params.Region)
}

func TestSetMappingParamsRejectsUnknownSource(t *testing.T) {
	_, err := runParams(t, "--name", "fn", "--uuid", "abc-123", "--source", "s3")
	assert.Error(t, err)
}

func TestSetMappingParamsFromYaml(t *testing.T) {
	file := filepath.Join(t.TempDir(), "mapping.yaml")
	content := "name: fn\nuuid: abc-123\nsource: dynamodb\nregion: eu-west-1\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	params, err := runParams(t, "--config", file)
	require.NoError(t, err)
	assert.Equal(t, "fn", params.FunctionName)
	assert.Equal(t, common.Dynamo, params.Source)
	assert.Equal(t, "eu-west-1", params.Region)
	assert.Zero(t, params.BatchSize)
}

func TestActionType(t *testing.T) {
	assert.True(t, Enable.Enabled())
	assert.False(t, Disable.Enabled())
}

type mockFunctionApi struct {
	calls        int
	invokeOutput *lambda.InvokeOutput
	lastInvoke   *lambda.InvokeInput
	lastCreate   *lambda.CreateEventSourceMappingInput
}

func (m *mockFunctionApi) GetEventSourceMapping(ctx context.Context, params *lambda.GetEventSourceMappingInput, optFns ...func(*lambda.Options)) (*lambda.GetEventSourceMappingOutput, error) {
	m.calls++
	return &lambda.GetEventSourceMappingOutput{}, nil
}

func (m *mockFunctionApi) ListEventSourceMappings(ctx context.Context, params *lambda.ListEventSourceMappingsInput, optFns ...func(*lambda.Options)) (*lambda.ListEventSourceMappingsOutput, error) {
	m.calls++
	return &lambda.ListEventSourceMappingsOutput{}, nil
}

func (m *mockFunctionApi) CreateEventSourceMapping(ctx context.Context, params *lambda.CreateEventSourceMappingInput, optFns ...func(*lambda.Options)) (*lambda.CreateEventSourceMappingOutput, error) {
	m.calls++
	m.lastCreate = params
	return &lambda.CreateEventSourceMappingOutput{UUID: aws.String("abc-123")}, nil
}

func (m *mockFunctionApi) UpdateEventSourceMapping(ctx context.Context, params *lambda.UpdateEventSourceMappingInput, optFns ...func(*lambda.Options)) (*lambda.UpdateEventSourceMappingOutput, error) {
	m.calls++
	return &lambda.UpdateEventSourceMappingOutput{}, nil
}

func (m *mockFunctionApi) DeleteEventSourceMapping(ctx context.Context, params *lambda.DeleteEventSourceMappingInput, optFns ...func(*lambda.Options)) (*lambda.DeleteEventSourceMappingOutput, error) {
	m.calls++
	return &lambda.DeleteEventSourceMappingOutput{}, nil
}

func (m *mockFunctionApi) Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error) {
	m.calls++
	m.lastInvoke = params
	if m.invokeOutput != nil {
		return m.invokeOutput, nil
	}
	return &lambda.InvokeOutput{StatusCode: 200, Payload: []byte(`"ok"`)}, nil
}

func (m *mockFunctionApi) InvokeAsync(ctx context.Context, params *lambda.InvokeAsyncInput, optFns ...func(*lambda.Options)) (*lambda.InvokeAsyncOutput, error) {
	m.calls++
	return &lambda.InvokeAsyncOutput{Status: 202}, nil
}

type mockIAMClient struct {
	calls       int
	attachedArn string
}

func (m *mockIAMClient) GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error) {
	m.calls++
	return &iam.GetRoleOutput{Role: &iamtypes.Role{Arn: aws.String("arn:aws:iam::123456789012:role/r")}}, nil
}

func (m *mockIAMClient) AttachRolePolicy(ctx context.Context, params *iam.AttachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error) {
	m.calls++
	m.attachedArn = aws.ToString(params.PolicyArn)
	return &iam.AttachRolePolicyOutput{}, nil
}

func (m *mockIAMClient) ListAttachedRolePolicies(ctx context.Context, params *iam.ListAttachedRolePoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedRolePoliciesOutput, error) {
	m.calls++
	return &iam.ListAttachedRolePoliciesOutput{}, nil
}

func withMockClients(t *testing.T) (*mockFunctionApi, *mockIAMClient) {
	fn := &mockFunctionApi{}
	roles := &mockIAMClient{}
	prevLambda, prevIAM := lambdaClient, iamClient
	lambdaClient = func(ctx context.Context, region string) (helperlambda.FunctionApi, error) {
		return fn, nil
	}
	iamClient = func(ctx context.Context, region string) (helperiam.Api, error) {
		return roles, nil
	}
	t.Cleanup(func() {
		lambdaClient, iamClient = prevLambda, prevIAM
	})
	return fn, roles
}

func run(args ...string) error {
	return newApp().Run(append([]string{"lambda-helper"}, args...))
}

func TestCreateMappingValidatesBeforeGrant(t *testing.T) {
	fn, roles := withMockClients(t)

	err := run("create_mapping", "--event_source_arn", "arn:aws:sqs:us-east-1:123456789012:q", "--role", "r")
	assert.EqualError(t, err, "Error in inputs: [ServiceWrapper.CreateEventSourceMapping]-Must supply functionName")
	assert.Zero(t, roles.calls)
	assert.Zero(t, fn.calls)

	err = run("create_mapping", "--name", "fn", "--role", "r")
	assert.ErrorContains(t, err, "Must supply eventSourceArn")
	assert.Zero(t, roles.calls)
	assert.Zero(t, fn.calls)
}

func TestCreateMappingGrantsPolicyForArnSource(t *testing.T) {
	fn, roles := withMockClients(t)

	err := run("create_mapping", "--name", "fn", "--role", "r",
		"--event_source_arn", "arn:aws:kinesis:us-east-1:123456789012:stream/events", "--starting_position", "LATEST")
	require.NoError(t, err)
	assert.Equal(t, common.Kinesis.ExecutionPolicyArn(), roles.attachedArn)
	require.NotNil(t, fn.lastCreate)
	assert.Equal(t, "fn", aws.ToString(fn.lastCreate.FunctionName))
}

func TestCreateMappingExplicitSourceWins(t *testing.T) {
	_, roles := withMockClients(t)

	err := run("create_mapping", "--name", "fn", "--role", "r", "--source", "dynamodb",
		"--event_source_arn", "arn:aws:dynamodb:us-east-1:123456789012:table/t/stream/2024")
	require.NoError(t, err)
	assert.Equal(t, common.Dynamo.ExecutionPolicyArn(), roles.attachedArn)
}

func TestInvokeSendsPayload(t *testing.T) {
	fn, _ := withMockClients(t)

	require.NoError(t, run("invoke", "--name", "fn", "--payload", `{"x": 1}`))
	require.NotNil(t, fn.lastInvoke)
	assert.JSONEq(t, `{"x":1}`, string(fn.lastInvoke.Payload))

	require.NoError(t, run("invoke", "--name", "fn", "--async", "--payload", `{"x": 1}`))
	assert.Equal(t, 2, fn.calls)
}

func TestInvokeRejectsInvalidPayload(t *testing.T) {
	fn, _ := withMockClients(t)

	err := run("invoke", "--name", "fn", "--payload", "{not json")
	assert.ErrorContains(t, err, "[ServiceWrapper.InvokeSync]-Could not serialize payload")
	var marshalErr *json.MarshalerError
	assert.ErrorAs(t, err, &marshalErr)
	assert.Zero(t, fn.calls)
}

func TestInvokeFailsOnFunctionError(t *testing.T) {
	fn, _ := withMockClients(t)
	fn.invokeOutput = &lambda.InvokeOutput{
		StatusCode:    200,
		FunctionError: aws.String("Unhandled"),
		Payload:       []byte(`{"errorMessage":"boom"}`),
	}

	err := run("invoke", "--name", "fn")
	assert.EqualError(t, err, "function returned Unhandled")
}
