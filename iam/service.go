package iam

import (
	"context"
	"errors"
	"fmt"

	"github.com/a-pavithraa/lambda-helper/common"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/smithy-go"
)

func Client(ctx context.Context, region string) (*iam.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return iam.NewFromConfig(cfg), nil
}

// CheckRoleExists returns the role ARN, or nil when IAM reports no such role.
// Any other error is returned unchanged.
func (wrapper ServiceWrapper) CheckRoleExists(ctx context.Context, roleName string) (*string, error) {
	result, err := wrapper.Client.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(roleName)})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchEntity" {
			return nil, nil
		}
		return nil, err
	}
	if result.Role == nil {
		return nil, nil
	}
	return result.Role.Arn, nil
}

func (wrapper ServiceWrapper) AttachRolePolicy(ctx context.Context, policyArn string, roleName string) error {
	_, err := wrapper.Client.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
		PolicyArn: aws.String(policyArn),
		RoleName:  aws.String(roleName),
	})
	return err
}

func (wrapper ServiceWrapper) ListAttachedRolePolicies(ctx context.Context, roleName string) ([]types.AttachedPolicy, error) {
	result, err := wrapper.Client.ListAttachedRolePolicies(ctx, &iam.ListAttachedRolePoliciesInput{
		RoleName: aws.String(roleName),
	})
	if err != nil {
		return nil, err
	}
	return result.AttachedPolicies, nil
}

// GrantEventSourceAccess attaches the managed execution policy for kind to the role,
// unless it is already attached.
func (wrapper ServiceWrapper) GrantEventSourceAccess(ctx context.Context, roleName string, kind common.SourceKind) error {
	action := "ServiceWrapper.GrantEventSourceAccess"
	wrapper.Tracer.LogInputs(action, map[string]interface{}{"roleName": roleName, "kind": kind})

	if err := common.RequireFields(action, "roleName", roleName); err != nil {
		return err
	}
	policyArn := kind.ExecutionPolicyArn()
	if policyArn == "" {
		return fmt.Errorf("no execution policy for event source %q", kind)
	}
	roleArn, err := wrapper.CheckRoleExists(ctx, roleName)
	if err != nil {
		return err
	}
	if roleArn == nil {
		return fmt.Errorf("role %s does not exist", roleName)
	}

	policies, err := wrapper.ListAttachedRolePolicies(ctx, roleName)
	if err != nil {
		return err
	}
	for _, policy := range policies {
		if aws.ToString(policy.PolicyArn) == policyArn {
			wrapper.Tracer.L().Sugar().Infof("%s already attached to %s", policyArn, roleName)
			return nil
		}
	}

	wrapper.Tracer.LogRequest(action, map[string]string{"policyArn": policyArn, "roleName": roleName})
	if err := wrapper.AttachRolePolicy(ctx, policyArn, roleName); err != nil {
		return err
	}
	wrapper.Tracer.L().Sugar().Infof("attached %s to %s", policyArn, roleName)
	return nil
}
