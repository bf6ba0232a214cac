package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/windoze95/nickate-skill/internal/config"
)

// ssmAPI is the subset of the SSM client used by SSMStore.
type ssmAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// SSMStore keeps secrets as SecureString parameters in AWS Systems Manager
// Parameter Store.
type SSMStore struct {
	client ssmAPI
	prefix string
}

// NewSSMStore creates an SSMStore from the app config.
func NewSSMStore(ctx context.Context, cfg *config.Config) (*SSMStore, error) {
	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewSSMStoreWithClient(ssm.NewFromConfig(awsCfg), cfg.EnvVars.SecretsPrefix), nil
}

// NewSSMStoreWithClient wraps an existing SSM client.
func NewSSMStoreWithClient(client ssmAPI, prefix string) *SSMStore {
	return &SSMStore{client: client, prefix: prefix}
}

// Get reads and decrypts a parameter.
func (s *SSMStore) Get(ctx context.Context, name string) (string, error) {
	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(s.prefix + name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", NotFoundError{Name: name}
		}
		return "", fmt.Errorf("ssm get parameter: %w", err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", NotFoundError{Name: name}
	}
	return *out.Parameter.Value, nil
}

// Put creates or overwrites a parameter.
func (s *SSMStore) Put(ctx context.Context, name, value string) error {
	_, err := s.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(s.prefix + name),
		Value:     aws.String(value),
		Type:      types.ParameterTypeSecureString,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("ssm put parameter: %w", err)
	}
	return nil
}
