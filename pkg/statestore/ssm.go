package statestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// ssmAPI is the slice of the SSM client the store uses
type ssmAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// SSMStore implements Store backed by AWS Systems Manager Parameter Store.
// Secrets are SecureString parameters; decryption happens inside Get via
// WithDecryption, so callers never see ciphertext.
type SSMStore struct {
	client ssmAPI
	prefix string
}

// NewSSMStore creates a parameter-store backed state store scoped under
// prefix (e.g. "/outpost/prod").
func NewSSMStore(client ssmAPI, prefix string) *SSMStore {
	return &SSMStore{
		client: client,
		prefix: prefix,
	}
}

// Get reads a parameter, decrypting SecureString values.
func (s *SSMStore) Get(ctx context.Context, key string) (string, error) {
	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(Join(s.prefix, key)),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *ssmtypes.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read parameter %s: %w", key, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s has no value", key)
	}
	return *out.Parameter.Value, nil
}

// Put writes a String parameter, overwriting any existing value.
func (s *SSMStore) Put(ctx context.Context, key, value string) error {
	return s.put(ctx, key, value, ssmtypes.ParameterTypeString)
}

// PutSecret writes a SecureString parameter, overwriting any existing value.
func (s *SSMStore) PutSecret(ctx context.Context, key, value string) error {
	return s.put(ctx, key, value, ssmtypes.ParameterTypeSecureString)
}

func (s *SSMStore) put(ctx context.Context, key, value string, typ ssmtypes.ParameterType) error {
	_, err := s.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(Join(s.prefix, key)),
		Value:     aws.String(value),
		Type:      typ,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to write parameter %s: %w", key, err)
	}
	return nil
}

// Close implements Store; the SSM client holds no local resources.
func (s *SSMStore) Close() error {
	return nil
}
