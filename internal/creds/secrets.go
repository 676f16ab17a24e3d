package creds

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsAPI is the part of the Secrets Manager client used here.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Payload is the JSON form a password secret may take. A secret whose string
// is not JSON is used as the password verbatim.
type Payload struct {
	Password string `json:"password"`
	Tomb     struct {
		Password string `json:"password"`
	} `json:"tomb"`
}

// ParsePayload extracts the password from a secret string.
func ParsePayload(secret string) (string, error) {
	trimmed := strings.TrimSpace(secret)
	if !strings.HasPrefix(trimmed, "{") {
		if secret == "" {
			return "", fmt.Errorf("secret is empty")
		}
		return secret, nil
	}

	var p Payload
	if err := json.Unmarshal([]byte(trimmed), &p); err != nil {
		return "", fmt.Errorf("parse secret JSON: %w", err)
	}
	switch {
	case p.Password != "":
		return p.Password, nil
	case p.Tomb.Password != "":
		return p.Tomb.Password, nil
	default:
		return "", fmt.Errorf("secret JSON has no password field")
	}
}

// NewSecretsClient builds a Secrets Manager client from the default AWS
// credential chain.
func NewSecretsClient(ctx context.Context) (*secretsmanager.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

// LoadFromSecret reads a tomb password from Secrets Manager by name or ARN.
func LoadFromSecret(ctx context.Context, client SecretsAPI, secretID string) (string, error) {
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: &secretID})
	if err != nil {
		return "", fmt.Errorf("get secret value: %w", err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret has no string payload")
	}
	return ParsePayload(*out.SecretString)
}
