package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/cyphera/cyphera-delegation/libs/go/interfaces"
	"github.com/cyphera/cyphera-delegation/libs/go/logger"
)

// SecretsManagerClient wraps the AWS Secrets Manager client. Secret values are
// never written to logs; only ARNs and env var names are.
type SecretsManagerClient struct {
	svc    interfaces.SecretsManagerAPI
	getenv func(string) string
}

// NewSecretsManagerClient creates and initializes a new Secrets Manager client.
// It uses the default AWS configuration chain (environment variables, shared config, IAM role).
func NewSecretsManagerClient(ctx context.Context) (*SecretsManagerClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load AWS SDK config")
	}

	return NewSecretsManagerClientWithAPI(secretsmanager.NewFromConfig(cfg)), nil
}

// NewSecretsManagerClientWithAPI builds a client around an existing API
// implementation. A nil api disables the Secrets Manager lookup so only the
// fallback environment variables are consulted.
func NewSecretsManagerClientWithAPI(api interfaces.SecretsManagerAPI) *SecretsManagerClient {
	return &SecretsManagerClient{
		svc:    api,
		getenv: os.Getenv,
	}
}

// GetSecretString fetches a secret string from AWS Secrets Manager using an ARN specified by an environment variable.
// If the ARN environment variable (secretArnEnvVar) is not set or fetching fails,
// it falls back to reading the secret directly from another environment variable (fallbackEnvVar).
// Secrets stored as a JSON object with a single key are unwrapped to that key's value.
func (c *SecretsManagerClient) GetSecretString(ctx context.Context, secretArnEnvVar string, fallbackEnvVar string) (string, error) {
	log := logger.L()
	secretArn := ""
	if secretArnEnvVar != "" {
		secretArn = c.getenv(secretArnEnvVar)
	}

	if secretArn != "" && c.svc != nil {
		log.Debug("Attempting to fetch secret from Secrets Manager", zap.String("arnEnvVar", secretArnEnvVar), zap.String("secretArn", secretArn))

		value, err := c.fetch(ctx, secretArn)
		if err == nil {
			return value, nil
		}

		log.Warn("Failed to retrieve secret from Secrets Manager, falling back to env var",
			zap.String("secretArnEnvVar", secretArnEnvVar),
			zap.String("secretArn", secretArn),
			zap.String("fallbackEnvVar", fallbackEnvVar),
			zap.Error(err),
		)
	} else {
		log.Debug("Secret ARN not available, falling back to direct env var",
			zap.String("arnEnvVar", secretArnEnvVar),
			zap.String("fallbackEnvVar", fallbackEnvVar),
		)
	}

	if fallbackEnvVar != "" {
		if secretValue := c.getenv(fallbackEnvVar); secretValue != "" {
			log.Info("Using secret value from direct environment variable", zap.String("envVar", fallbackEnvVar))
			return secretValue, nil
		}
	}

	return "", fmt.Errorf("secret not found using ARN env var '%s' or direct env var '%s'", secretArnEnvVar, fallbackEnvVar)
}

func (c *SecretsManagerClient) fetch(ctx context.Context, secretArn string) (string, error) {
	result, err := c.svc.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretArn),
	})
	if err != nil {
		return "", errors.Wrapf(err, "get secret value %s", secretArn)
	}
	if result.SecretString == nil || strings.TrimSpace(*result.SecretString) == "" {
		return "", errors.Errorf("secret %s has no string value", secretArn)
	}

	fetched := strings.TrimSpace(*result.SecretString)

	var secretJSON map[string]string
	jsonErr := json.Unmarshal([]byte(fetched), &secretJSON)
	if jsonErr == nil && len(secretJSON) == 1 {
		for key, value := range secretJSON {
			logger.L().Info("Fetched secret from Secrets Manager (extracted from single-key JSON)",
				zap.String("secretArn", secretArn),
				zap.String("jsonKey", key),
			)
			return value, nil
		}
	}
	if jsonErr == nil {
		logger.L().Warn("Fetched secret was JSON but not single-key format, returning raw JSON string",
			zap.String("secretArn", secretArn),
			zap.Int("keyCount", len(secretJSON)),
		)
	} else {
		logger.L().Info("Fetched secret from Secrets Manager (treated as plain text)", zap.String("secretArn", secretArn))
	}
	return fetched, nil
}
