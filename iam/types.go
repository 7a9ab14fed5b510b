package iam

import (
	"context"

	"github.com/a-pavithraa/lambda-helper/common"
	"github.com/aws/aws-sdk-go-v2/service/iam"
)

// Api is the part of *iam.Client used to grant event source access.
type Api interface {
	GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error)
	AttachRolePolicy(ctx context.Context, params *iam.AttachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error)
	ListAttachedRolePolicies(ctx context.Context, params *iam.ListAttachedRolePoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedRolePoliciesOutput, error)
}

type ServiceWrapper struct {
	Client Api
	Tracer common.Tracer
}
