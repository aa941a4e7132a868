package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/menusense/optimizer/internal/ports/outbound"
)

// ErrSecretNotFound is returned by StaticSecretStore for unknown names.
var ErrSecretNotFound = errors.New("secret not found")

// parameterGetter is the slice of the SSM API the store uses.
type parameterGetter interface {
	GetParameterWithContext(ctx aws.Context, input *ssm.GetParameterInput, opts ...request.Option) (*ssm.GetParameterOutput, error)
}

// SSMSecretStore reads SecureString parameters from AWS Systems Manager.
type SSMSecretStore struct {
	api parameterGetter
}

var _ outbound.SecretStore = (*SSMSecretStore)(nil)

// NewSSMSecretStore creates a store backed by a new AWS session in region.
func NewSSMSecretStore(region string) (*SSMSecretStore, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return &SSMSecretStore{api: ssm.New(sess)}, nil
}

// GetSecret returns the decrypted parameter value at name.
func (s *SSMSecretStore) GetSecret(ctx context.Context, name string) (string, error) {
	out, err := s.api.GetParameterWithContext(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get parameter %s: %w", name, err)
	}
	if out.Parameter == nil {
		return "", fmt.Errorf("get parameter %s: %w", name, ErrSecretNotFound)
	}
	return aws.StringValue(out.Parameter.Value), nil
}

// StaticSecretStore serves secrets from memory.
type StaticSecretStore struct {
	mu      sync.RWMutex
	secrets map[string]string
}

var _ outbound.SecretStore = (*StaticSecretStore)(nil)

// NewStaticSecretStore creates a store holding a copy of secrets.
func NewStaticSecretStore(secrets map[string]string) *StaticSecretStore {
	s := &StaticSecretStore{secrets: make(map[string]string, len(secrets))}
	for k, v := range secrets {
		s.secrets[k] = v
	}
	return s
}

// GetSecret returns the secret stored under name.
func (s *StaticSecretStore) GetSecret(_ context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.secrets[name]
	if !ok {
		return "", fmt.Errorf("%s: %w", name, ErrSecretNotFound)
	}
	return v, nil
}

// Set stores or replaces a secret.
func (s *StaticSecretStore) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[name] = value
}
