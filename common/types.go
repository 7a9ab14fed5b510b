package common

import (
	"fmt"
	"strings"
)

// SourceKind identifies the kind of event source behind a mapping.
type SourceKind string

const (
	Dynamo  SourceKind = "dynamodb"
	Kinesis SourceKind = "kinesis"
	SQS     SourceKind = "sqs"
)

// DefaultBatchSize is used by enable/disable when the caller passes no batch size.
func (k SourceKind) DefaultBatchSize() int32 {
	switch k {
	case SQS:
		return 10
	default:
		return 100
	}
}

// ExecutionPolicyArn is the AWS managed policy a function role needs to read from the source.
func (k SourceKind) ExecutionPolicyArn() string {
	switch k {
	case Dynamo:
		return "arn:aws:iam::aws:policy/service-role/AWSLambdaDynamoDBExecutionRole"
	case Kinesis:
		return "arn:aws:iam::aws:policy/service-role/AWSLambdaKinesisExecutionRole"
	case SQS:
		return "arn:aws:iam::aws:policy/service-role/AWSLambdaSQSQueueExecutionRole"
	}
	return ""
}

func ParseSourceKind(s string) (SourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dynamo", "dynamodb":
		return Dynamo, nil
	case "kinesis":
		return Kinesis, nil
	case "sqs":
		return SQS, nil
	}
	return "", fmt.Errorf("unknown event source %q, expected one of dynamodb, kinesis, sqs", s)
}

// SourceKindFromArn reads the kind from the service field of a stream or queue ARN.
func SourceKindFromArn(arn string) (SourceKind, error) {
	parts := strings.Split(strings.TrimSpace(arn), ":")
	if len(parts) < 6 || parts[0] != "arn" {
		return "", fmt.Errorf("cannot tell the event source kind of %q, pass --source", arn)
	}
	switch parts[2] {
	case "dynamodb":
		return Dynamo, nil
	case "kinesis":
		return Kinesis, nil
	case "sqs":
		return SQS, nil
	}
	return "", fmt.Errorf("unsupported event source service %q in %q", parts[2], arn)
}

type MappingParams struct {
	FunctionName     string
	Uuid             string
	EventSourceArn   string
	Source           SourceKind
	BatchSize        int32
	Enabled          bool
	StartingPosition string
	RoleName         string
	Region           string
	Payload          string
	Async            bool
}
