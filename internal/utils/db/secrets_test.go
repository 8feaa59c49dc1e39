package db

import (
	"context"
	"errors"
	"testing"

	"github.com/KromaEnergia/api-controle-clube/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSecrets struct {
	mock.Mock
}

func (m *mockSecrets) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	args := m.Called(aws.ToString(params.SecretId))
	out, _ := args.Get(0).(*secretsmanager.GetSecretValueOutput)
	return out, args.Error(1)
}

func TestRetrieveCredentials_PrefereAmbiente(t *testing.T) {
	user, pass, err := retrieveCredentials(context.Background(), config.DatabaseConfig{Username: "app", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "app", user)
	assert.Equal(t, "pw", pass)
}

func TestRetrieveCredentials_SemSegredo(t *testing.T) {
	_, _, err := retrieveCredentials(context.Background(), config.DatabaseConfig{})
	assert.Error(t, err)
}

func TestFetchCredentials(t *testing.T) {
	m := &mockSecrets{}
	m.On("GetSecretValue", "prod/db").Return(&secretsmanager.GetSecretValueOutput{
		SecretString: aws.String(`{"username":"clube","password":"s3nha"}`),
	}, nil)

	user, pass, err := fetchCredentials(context.Background(), m, "prod/db")
	require.NoError(t, err)
	assert.Equal(t, "clube", user)
	assert.Equal(t, "s3nha", pass)
	m.AssertExpectations(t)
}

func TestFetchCredentials_Erro(t *testing.T) {
	m := &mockSecrets{}
	m.On("GetSecretValue", "x").Return(nil, errors.New("access denied"))

	_, _, err := fetchCredentials(context.Background(), m, "x")
	assert.ErrorContains(t, err, "access denied")
}
