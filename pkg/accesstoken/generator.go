// Package accesstoken mints the bearer token strings handed out to
// account holders. Tokens are EdDSA-signed JWTs carrying the account
// id and the flag snapshot at mint time. They do not expire; revocation
// happens by deleting the database row, so verification of the
// signature alone is never sufficient to authorize a request.
package accesstoken

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/devoptimist/builder/pkg/idx"
)

// Generator signs access tokens with a persistent Ed25519 key.
type Generator struct {
	key    ed25519.PrivateKey
	issuer string
}

// NewGenerator loads the Ed25519 signing key from keyPath, generating
// and persisting a fresh key on first run. The key file is PKCS8 PEM
// with 0600 permissions.
func NewGenerator(keyPath, issuer string) (*Generator, error) {
	if issuer == "" {
		return nil, errors.New("accesstoken: issuer must not be empty")
	}

	key, err := loadOrGenerateKey(keyPath)
	if err != nil {
		return nil, err
	}

	return &Generator{key: key, issuer: issuer}, nil
}

// Generate mints a signed token for the account. Each call produces a
// distinct token string even for identical claims, because the token id
// claim is a fresh ULID.
func (g *Generator) Generate(accountID string, flags []string) (string, error) {
	if accountID == "" {
		return "", errors.New("accesstoken: account id must not be empty")
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":   accountID,
		"flags": flags,
		"jti":   idx.New().String(),
		"iat":   now.Unix(),
		"iss":   g.issuer,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(g.key)
	if err != nil {
		return "", fmt.Errorf("accesstoken: sign token: %w", err)
	}

	return token, nil
}

func loadOrGenerateKey(keyPath string) (ed25519.PrivateKey, error) {
	keyPath = filepath.Clean(keyPath)
	if err := os.MkdirAll(filepath.Dir(keyPath), 0750); err != nil {
		return nil, fmt.Errorf("accesstoken: create key directory: %w", err)
	}

	if _, err := os.Stat(keyPath); os.IsNotExist(err) {
		_, key, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("accesstoken: generate key: %w", err)
		}

		// Ed25519 keys are always marshaled as PKCS8
		der, err := x509.MarshalPKCS8PrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("accesstoken: marshal PKCS8 key: %w", err)
		}

		pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
		if err := os.WriteFile(keyPath, pemBytes, 0600); err != nil {
			return nil, fmt.Errorf("accesstoken: write key file: %w", err)
		}

		return key, nil
	}

	pemBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("accesstoken: read key file: %w", err)
	}

	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("accesstoken: invalid PEM in key file")
	}
	if block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("accesstoken: expected PRIVATE KEY, got %q (Ed25519 requires PKCS8)", block.Type)
	}

	priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("accesstoken: parse PKCS8: %w", err)
	}

	key, ok := priv.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("accesstoken: key file does not hold an Ed25519 private key")
	}

	return key, nil
}
