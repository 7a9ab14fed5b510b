package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/a-pavithraa/lambda-helper/common"
	"github.com/a-pavithraa/lambda-helper/iam"
	"github.com/a-pavithraa/lambda-helper/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/smithy-go"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
	"go.uber.org/zap"
)

func baseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "yaml config file name",
		},
		altsrc.NewStringFlag(
			&cli.StringFlag{
				Name:    "region",
				Aliases: []string{"r"},
				Value:   lambda.DefaultRegion,
				Usage:   "Region",
			},
		),
		altsrc.NewBoolFlag(
			&cli.BoolFlag{
				Name:  "json_log",
				Value: false,
				Usage: "Log in JSON format",
			},
		),
		altsrc.NewBoolFlag(
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Value:   false,
				Usage:   "Log inputs, requests and responses",
			},
		),
	}
}

func nameFlag() cli.Flag {
	return altsrc.NewStringFlag(
		&cli.StringFlag{
			Name:    "name",
			Aliases: []string{"n"},
			Usage:   "Name or ARN of the Lambda function",
		},
	)
}

func uuidFlag() cli.Flag {
	return altsrc.NewStringFlag(
		&cli.StringFlag{
			Name:    "uuid",
			Aliases: []string{"u"},
			Usage:   "UUID of the event source mapping",
		},
	)
}

func eventSourceArnFlag() cli.Flag {
	return altsrc.NewStringFlag(
		&cli.StringFlag{
			Name:    "event_source_arn",
			Aliases: []string{"esa"},
			Usage:   "ARN of the stream or queue",
		},
	)
}

func batchSizeFlag() cli.Flag {
	return altsrc.NewIntFlag(
		&cli.IntFlag{
			Name:    "batch_size",
			Aliases: []string{"bs"},
			Value:   0,
			Usage:   "Records per invocation. 0 uses the default for the source",
		},
	)
}

func sourceFlag(defaultKind common.SourceKind) cli.Flag {
	return altsrc.NewStringFlag(
		&cli.StringFlag{
			Name:    "source",
			Aliases: []string{"s"},
			Value:   string(defaultKind),
			Usage:   "Event source kind: dynamodb, kinesis or sqs",
		},
	)
}

func command(name, alias, usage string, action cli.ActionFunc, extra ...cli.Flag) *cli.Command {
	flags := append(baseFlags(), extra...)
	return &cli.Command{
		Name:    name,
		Aliases: []string{alias},
		Before:  altsrc.InitInputSourceWithContext(flags, altsrc.NewYamlSourceFromFlagFunc("config")),
		Flags:   flags,
		Usage:   usage,
		Action:  action,
	}
}

func enabledFlag() cli.Flag {
	return altsrc.NewBoolFlag(
		&cli.BoolFlag{
			Name:  "enabled",
			Value: true,
			Usage: "Whether the mapping is enabled",
		},
	)
}

func newApp() *cli.App {
	commands := []*cli.Command{
		command("get_mapping", "gm", "Gets an event source mapping", GetMapping, uuidFlag()),
		command("list_mappings", "lm", "Lists event source mappings of a function for a source", ListMappings,
			nameFlag(), eventSourceArnFlag()),
		command("update_mapping", "um", "Updates an event source mapping", UpdateMapping,
			nameFlag(), uuidFlag(), enabledFlag(), batchSizeFlag()),
		command("enable_mapping", "em", "Enables an event source mapping", ToggleMapping(Enable),
			nameFlag(), uuidFlag(), sourceFlag(common.SQS), batchSizeFlag()),
		command("disable_mapping", "dm", "Disables an event source mapping", ToggleMapping(Disable),
			nameFlag(), uuidFlag(), sourceFlag(common.SQS), batchSizeFlag()),
		command("create_mapping", "cm", "Creates an event source mapping", CreateMapping,
			nameFlag(), eventSourceArnFlag(), sourceFlag(""), batchSizeFlag(), enabledFlag(),
			altsrc.NewStringFlag(&cli.StringFlag{
				Name:    "starting_position",
				Aliases: []string{"sp"},
				Usage:   "LATEST or TRIM_HORIZON for streams",
			}),
			altsrc.NewStringFlag(&cli.StringFlag{
				Name:    "role",
				Aliases: []string{"ro"},
				Usage:   "Execution role to grant read access on the source",
			}),
		),
		command("delete_mapping", "xm", "Deletes an event source mapping", DeleteMapping, uuidFlag()),
		command("invoke", "i", "Invokes a Lambda function", Invoke,
			nameFlag(),
			altsrc.NewStringFlag(&cli.StringFlag{
				Name:    "payload",
				Aliases: []string{"p"},
				Usage:   "JSON payload",
			}),
			altsrc.NewBoolFlag(&cli.BoolFlag{
				Name:  "async",
				Value: false,
				Usage: "Queue the invocation instead of waiting for the result",
			}),
		),
	}

	return &cli.App{
		Name:     "lambda-helper",
		Usage:    "Invoke Lambda functions and manage their event source mappings",
		Commands: commands,
	}
}

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			log.Fatalf("AWS rejected the request. %s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
		}
		log.Fatalf("Not able to run the command . The reason is %s", err.Error())
	}
}

func SetMappingParams(cCtx *cli.Context) (*common.MappingParams, error) {
	params := common.MappingParams{
		FunctionName:     cCtx.String("name"),
		Uuid:             cCtx.String("uuid"),
		EventSourceArn:   cCtx.String("event_source_arn"),
		BatchSize:        int32(cCtx.Int("batch_size")),
		Enabled:          cCtx.Bool("enabled"),
		StartingPosition: cCtx.String("starting_position"),
		RoleName:         cCtx.String("role"),
		Region:           cCtx.String("region"),
		Payload:          cCtx.String("payload"),
		Async:            cCtx.Bool("async"),
	}
	if source := cCtx.String("source"); source != "" {
		kind, err := common.ParseSourceKind(source)
		if err != nil {
			return nil, err
		}
		params.Source = kind
	}
	return &params, nil
}

// Client constructors, replaced in tests.
var (
	lambdaClient = func(ctx context.Context, region string) (lambda.FunctionApi, error) {
		client, err := lambda.Client(ctx, &lambda.Options{Region: region})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	iamClient = func(ctx context.Context, region string) (iam.Api, error) {
		client, err := iam.Client(ctx, region)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
)

func newWrapper(cCtx *cli.Context) (*lambda.ServiceWrapper, *common.MappingParams, *zap.Logger, error) {
	params, err := SetMappingParams(cCtx)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := NewLogger(cCtx.Bool("json_log"), cCtx.Bool("verbose"))
	if err != nil {
		return nil, nil, nil, err
	}
	client, err := lambdaClient(cCtx.Context, params.Region)
	if err != nil {
		return nil, nil, nil, err
	}
	wrapper, err := lambda.New(cCtx.Context, logger, client, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	return wrapper, params, logger, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func GetMapping(cCtx *cli.Context) error {
	wrapper, params, logger, err := newWrapper(cCtx)
	if err != nil {
		return err
	}
	defer logger.Sync()

	resp, err := wrapper.GetEventSourceMapping(cCtx.Context, params.Uuid)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func ListMappings(cCtx *cli.Context) error {
	wrapper, params, logger, err := newWrapper(cCtx)
	if err != nil {
		return err
	}
	defer logger.Sync()

	resp, err := wrapper.ListEventSourceMappings(cCtx.Context, params.FunctionName, params.EventSourceArn)
	if err != nil {
		return err
	}
	return printJSON(resp.EventSourceMappings)
}

func UpdateMapping(cCtx *cli.Context) error {
	wrapper, params, logger, err := newWrapper(cCtx)
	if err != nil {
		return err
	}
	defer logger.Sync()

	resp, err := wrapper.UpdateEventSourceMapping(cCtx.Context, params.FunctionName, params.Enabled, params.Uuid, params.BatchSize)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func ToggleMapping(action ActionType) cli.ActionFunc {
	return func(cCtx *cli.Context) error {
		wrapper, params, logger, err := newWrapper(cCtx)
		if err != nil {
			return err
		}
		defer logger.Sync()

		resp, err := wrapper.SetEventSourceMappingState(cCtx.Context, params.Source, params.FunctionName, params.Uuid, action.Enabled(), params.BatchSize)
		if err != nil {
			return err
		}
		logger.Sugar().Infof("Mapping %s is now %s", params.Uuid, stateOf(resp.State))
		return printJSON(resp)
	}
}

func stateOf(state *string) string {
	if state == nil {
		return "unknown"
	}
	return *state
}

func CreateMapping(cCtx *cli.Context) error {
	wrapper, params, logger, err := newWrapper(cCtx)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Nothing may reach IAM before the mapping request is known to be complete.
	if err := common.RequireFields("ServiceWrapper.CreateEventSourceMapping",
		"functionName", params.FunctionName, "eventSourceArn", params.EventSourceArn); err != nil {
		return err
	}

	if !common.TrimAndCheckEmptyString(&params.RoleName) {
		kind := params.Source
		if kind == "" {
			kind, err = common.SourceKindFromArn(params.EventSourceArn)
			if err != nil {
				return err
			}
		}
		client, err := iamClient(cCtx.Context, params.Region)
		if err != nil {
			return err
		}
		iamWrapper := iam.ServiceWrapper{
			Client: client,
			Tracer: common.NewTracer(logger),
		}
		if err := iamWrapper.GrantEventSourceAccess(cCtx.Context, params.RoleName, kind); err != nil {
			return err
		}
	}

	resp, err := wrapper.CreateEventSourceMapping(cCtx.Context, params.FunctionName, params.EventSourceArn,
		params.Enabled, params.BatchSize, types.EventSourcePosition(params.StartingPosition))
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func DeleteMapping(cCtx *cli.Context) error {
	wrapper, params, logger, err := newWrapper(cCtx)
	if err != nil {
		return err
	}
	defer logger.Sync()

	resp, err := wrapper.DeleteEventSourceMapping(cCtx.Context, params.Uuid)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func Invoke(cCtx *cli.Context) error {
	wrapper, params, logger, err := newWrapper(cCtx)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var payload interface{}
	if !common.TrimAndCheckEmptyString(&params.Payload) {
		payload = json.RawMessage(params.Payload)
	}

	if params.Async {
		resp, err := wrapper.InvokeAsync(cCtx.Context, params.FunctionName, payload)
		if err != nil {
			return err
		}
		logger.Sugar().Infof("Invocation queued with status %d", resp.Status)
		return nil
	}

	resp, err := wrapper.InvokeSync(cCtx.Context, params.FunctionName, payload)
	if err != nil {
		return err
	}
	if resp.FunctionError != nil {
		fmt.Fprintln(os.Stderr, string(resp.Payload))
		return fmt.Errorf("function returned %s", *resp.FunctionError)
	}
	fmt.Println(string(resp.Payload))
	return nil
}
