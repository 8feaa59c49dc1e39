package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/KromaEnergia/api-controle-clube/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SecretGetter é a parte do cliente do Secrets Manager que usamos.
type SecretGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

var newSecretsClient = func(ctx context.Context) (SecretGetter, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return secretsmanager.NewFromConfig(awsCfg), nil
}

// retrieveCredentials usa DB_USERNAME/DB_PASSWORD quando definidos,
// senão busca o segredo DB_SECRET_ID no Secrets Manager.
func retrieveCredentials(ctx context.Context, cfg config.DatabaseConfig) (string, string, error) {
	if cfg.Username != "" && cfg.Password != "" {
		return cfg.Username, cfg.Password, nil
	}
	if cfg.SecretID == "" {
		return "", "", errors.New("credenciais do banco ausentes: defina DB_USERNAME/DB_PASSWORD ou DB_SECRET_ID")
	}

	client, err := newSecretsClient(ctx)
	if err != nil {
		return "", "", fmt.Errorf("configurar aws: %w", err)
	}
	return fetchCredentials(ctx, client, cfg.SecretID)
}

func fetchCredentials(ctx context.Context, client SecretGetter, secretID string) (string, string, error) {
	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(secretID),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return "", "", fmt.Errorf("ler segredo %s: %w", secretID, err)
	}
	if result.SecretString == nil {
		return "", "", fmt.Errorf("segredo %s sem SecretString", secretID)
	}

	var secret Credentials
	if err := json.Unmarshal([]byte(*result.SecretString), &secret); err != nil {
		return "", "", fmt.Errorf("decodificar segredo: %w", err)
	}
	return secret.Username, secret.Password, nil
}
