package llm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/menusense/optimizer/internal/domain/llm"
	"github.com/menusense/optimizer/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestFactoryCachesClients(t *testing.T) {
	secrets := &testutils.MockSecretStore{}
	secrets.On("GetSecret", mock.Anything, "/prod/llm/openai/api-key").Return("sk-openai", nil).Once()
	secrets.On("GetSecret", mock.Anything, "/prod/llm/anthropic/api-key").Return("sk-ant", nil).Twice()

	f := NewFactory(FactoryConfig{Stage: "prod"}, secrets, zaptest.NewLogger(t))
	ctx := context.Background()

	first, err := f.CreateClient(ctx)
	require.NoError(t, err)
	second, err := f.CreateClient(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, llm.ProviderOpenAI, first.Provider())
	assert.Equal(t, "gpt-4o-mini", first.Model())

	haiku, err := f.CreateClientWithProvider(ctx, llm.ProviderAnthropic, "")
	require.NoError(t, err)
	sonnet, err := f.CreateClientWithProvider(ctx, llm.ProviderAnthropic, "claude-3-5-sonnet-latest")
	require.NoError(t, err)
	assert.NotSame(t, haiku, sonnet)
	assert.Equal(t, "claude-3-5-haiku-latest", haiku.Model())
	assert.Equal(t, 3, f.CacheSize())

	again, err := f.CreateClientWithProvider(ctx, llm.ProviderAnthropic, "")
	require.NoError(t, err)
	assert.Same(t, haiku, again)

	secrets.AssertExpectations(t)
}

func TestFactoryClearCacheResolvesAgain(t *testing.T) {
	secrets := &testutils.MockSecretStore{}
	secrets.On("GetSecret", mock.Anything, "/dev/llm/google/api-key").Return("g-key", nil).Twice()

	f := NewFactory(FactoryConfig{DefaultProvider: llm.ProviderGoogle}, secrets, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := f.CreateClient(ctx)
	require.NoError(t, err)
	f.ClearCache()
	assert.Zero(t, f.CacheSize())
	_, err = f.CreateClient(ctx)
	require.NoError(t, err)

	secrets.AssertExpectations(t)
}

func TestFactoryLocalKeysWin(t *testing.T) {
	secrets := &testutils.MockSecretStore{}
	f := NewFactory(FactoryConfig{
		LocalKeys: map[llm.Provider]string{llm.ProviderOpenAI: "local-key"},
	}, secrets, zaptest.NewLogger(t))

	c, err := f.CreateClient(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "local-key", c.(*Client).apiKey)
	secrets.AssertNotCalled(t, "GetSecret", mock.Anything, mock.Anything)
}

func TestFactoryCredentialErrors(t *testing.T) {
	secrets := &testutils.MockSecretStore{}
	secrets.On("GetSecret", mock.Anything, "/dev/llm/openai/api-key").Return("", errors.New("ParameterNotFound"))
	secrets.On("GetSecret", mock.Anything, "/dev/llm/google/api-key").Return("  ", nil)

	f := NewFactory(FactoryConfig{}, secrets, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := f.CreateClient(ctx)
	var credErr *llm.CredentialResolutionError
	require.True(t, errors.As(err, &credErr))
	assert.Equal(t, "/dev/llm/openai/api-key", credErr.Path)

	_, err = f.CreateClientWithProvider(ctx, llm.ProviderGoogle, "")
	assert.True(t, llm.IsCredentialError(err))
	assert.Zero(t, f.CacheSize())

	_, err = f.CreateClientWithProvider(ctx, "mistral", "")
	var unsupported *llm.UnsupportedProviderError
	assert.True(t, errors.As(err, &unsupported))

	noStore := NewFactory(FactoryConfig{}, nil, zaptest.NewLogger(t))
	_, err = noStore.CreateClient(ctx)
	assert.True(t, llm.IsCredentialError(err))
}

func TestFactoryConcurrentCreate(t *testing.T) {
	secrets := NewStaticSecretStore(map[string]string{"/dev/llm/openai/api-key": "k"})
	f := NewFactory(FactoryConfig{}, secrets, zaptest.NewLogger(t))

	var wg sync.WaitGroup
	clients := make([]any, 16)
	for i := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := f.CreateClient(context.Background())
			assert.NoError(t, err)
			clients[i] = c
		}()
	}
	wg.Wait()

	for _, c := range clients[1:] {
		assert.Same(t, clients[0], c)
	}
}

type fakeSSM struct {
	input *ssm.GetParameterInput
	value string
	err   error
}

func (f *fakeSSM) GetParameterWithContext(_ aws.Context, input *ssm.GetParameterInput, _ ...request.Option) (*ssm.GetParameterOutput, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.GetParameterOutput{Parameter: &ssm.Parameter{Value: aws.String(f.value)}}, nil
}

func TestSSMSecretStore(t *testing.T) {
	api := &fakeSSM{value: "sk-live"}
	store := &SSMSecretStore{api: api}

	v, err := store.GetSecret(context.Background(), SecretPath("prod", llm.ProviderOpenAI))
	require.NoError(t, err)
	assert.Equal(t, "sk-live", v)
	assert.Equal(t, "/prod/llm/openai/api-key", aws.StringValue(api.input.Name))
	assert.True(t, aws.BoolValue(api.input.WithDecryption))

	api.err = errors.New("AccessDenied")
	_, err = store.GetSecret(context.Background(), "/prod/llm/openai/api-key")
	assert.ErrorContains(t, err, "AccessDenied")
}

func TestStaticSecretStore(t *testing.T) {
	store := NewStaticSecretStore(nil)
	_, err := store.GetSecret(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSecretNotFound)

	store.Set("name", "value")
	v, err := store.GetSecret(context.Background(), "name")
	require.NoError(t, err)
	assert.Equal(t, "value", v)
}
