package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aussiebroadwan/yarnhub/pkg/cryptox"
	"github.com/aussiebroadwan/yarnhub/pkg/idx"
	"github.com/aussiebroadwan/yarnhub/pkg/jwtx"
)

// SessionKeys bundles the signing side and the verification side of the
// token codec. The verifier only ever sees the public half via the KeySet.
type SessionKeys struct {
	KeySet   *jwtx.KeySet
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
}

// InitSessionKeys loads the configured PEM private key, or generates an
// ephemeral one when no key file is configured. Ephemeral mode invalidates
// every outstanding token on restart, which is fine for dev and test.
func InitSessionKeys(cfg Config, logger *slog.Logger) (*SessionKeys, error) {
	pemKey, err := loadOrGenerateKey(cfg, logger)
	if err != nil {
		return nil, err
	}

	kid := string(idx.New())

	var signer jwtx.Signer
	switch cfg.Algorithm {
	case "RS256":
		signer, err = jwtx.NewSignerRS256(kid, pemKey)
	case "EdDSA", "":
		signer, err = jwtx.NewSignerEdDSA(kid, pemKey)
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to construct signer: %w", err)
	}

	keys := jwtx.NewKeySet()
	if err := keys.AddSigner(signer); err != nil {
		return nil, fmt.Errorf("failed to register signing key: %w", err)
	}

	var verifier jwtx.Verifier
	if cfg.Algorithm == "RS256" {
		verifier = jwtx.NewCommonRS256(keys, cfg.Issuer, nil)
	} else {
		verifier = jwtx.NewCommonEdDSA(keys, cfg.Issuer, nil)
	}

	logger.Info("signing key ready",
		"algorithm", signer.Alg(),
		"kid", signer.KID(),
		"issuer", cfg.Issuer,
		"ephemeral", cfg.KeyFile == "",
	)
	if cfg.KeyFile == "" {
		logger.Warn("ephemeral signing key generated; all previously issued tokens are now invalid")
	}

	return &SessionKeys{KeySet: keys, Signer: signer, Verifier: verifier}, nil
}

func loadOrGenerateKey(cfg Config, logger *slog.Logger) ([]byte, error) {
	if cfg.KeyFile != "" {
		pemKey, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file %s: %w", cfg.KeyFile, err)
		}
		return pemKey, nil
	}

	logger.Info("no key file configured, generating ephemeral key", "algorithm", cfg.Algorithm)
	if cfg.Algorithm == "RS256" {
		return cryptox.GenerateRSAKey(cfg.RSABits)
	}
	return cryptox.GenerateEd25519Key()
}
