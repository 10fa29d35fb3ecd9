package compute

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"

	"github.com/outpost-sh/outpost/pkg/types"
)

// ec2API is the slice of the EC2 client the platform uses
type ec2API interface {
	RunInstances(ctx context.Context, params *ec2.RunInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error)
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

// EC2Platform implements Platform against EC2. Launches go through a
// launch template so the instance specification (spot request, AMI,
// user data, security groups) stays in infrastructure code, not here.
type EC2Platform struct {
	client ec2API
}

// NewEC2Platform creates an EC2-backed platform client.
func NewEC2Platform(client ec2API) *EC2Platform {
	return &EC2Platform{client: client}
}

// CreateFromTemplate launches one instance from the template's latest
// version and returns its ID.
func (p *EC2Platform) CreateFromTemplate(ctx context.Context, templateID string) (string, error) {
	out, err := p.client.RunInstances(ctx, &ec2.RunInstancesInput{
		LaunchTemplate: &ec2types.LaunchTemplateSpecification{
			LaunchTemplateId: aws.String(templateID),
			Version:          aws.String("$Latest"),
		},
		MinCount: aws.Int32(1),
		MaxCount: aws.Int32(1),
	})
	if err != nil {
		return "", fmt.Errorf("failed to launch instance from template %s: %w", templateID, err)
	}

	if len(out.Instances) == 0 {
		return "", fmt.Errorf("launch from template %s returned no instances", templateID)
	}
	id := aws.ToString(out.Instances[0].InstanceId)
	if id == "" {
		return "", fmt.Errorf("launch from template %s returned an instance without an id", templateID)
	}
	return id, nil
}

// Describe returns the instance's lifecycle state and public address.
func (p *EC2Platform) Describe(ctx context.Context, instanceID string) (*types.Instance, error) {
	out, err := p.client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "InvalidInstanceID.NotFound" {
			return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, instanceID)
		}
		return nil, fmt.Errorf("failed to describe instance %s: %w", instanceID, err)
	}

	for _, reservation := range out.Reservations {
		for _, inst := range reservation.Instances {
			if aws.ToString(inst.InstanceId) != instanceID {
				continue
			}
			result := &types.Instance{
				ID:       instanceID,
				PublicIP: aws.ToString(inst.PublicIpAddress),
			}
			if inst.State != nil {
				result.State = types.InstanceState(inst.State.Name)
			}
			return result, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, instanceID)
}
