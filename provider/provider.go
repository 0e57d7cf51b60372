// Package provider implements wallet backends that answer the signing
// requests a browser wallet (window.ethereum) would: account enabling,
// personal_sign and raw-digest eth_sign.
package provider

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/hdkeychain/v3"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

var (
	ErrUnknownAccount = errors.New("unknown account")
	ErrInvalidHash    = errors.New("hash must be 32 bytes")
	ErrNoProvider     = errors.New("no wallet provider configured")
)

// Provider is a wallet that owns keys and signs on request. Signatures are
// 65 bytes laid out as r || s || v with v in {27, 28}.
type Provider interface {
	// RequestAccounts asks the wallet to expose its accounts.
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// PersonalSign signs message with the EIP-191 text prefix applied.
	PersonalSign(ctx context.Context, message []byte, address common.Address) ([]byte, error)
	// EthSign signs the 32-byte hash as is, without any prefix.
	EthSign(ctx context.Context, address common.Address, hash []byte) ([]byte, error)
}

// Config selects one wallet backend.
type Config struct {
	RPC        string
	PrivateKey string
	Mnemonic   string
	HDPath     string
	Keystore   string
	Password   string
}

func CreateProvider(ctx context.Context, cfg Config) (Provider, error) {
	if cfg.RPC != "" {
		p, err := DialRPCProvider(ctx, cfg.RPC)
		if err != nil {
			return nil, err
		}
		return p, nil
	}

	if cfg.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("error parsing private key: %w", err)
		}
		return NewKeyProvider(key), nil
	}

	if cfg.Keystore != "" {
		ks := keystore.NewKeyStore(cfg.Keystore, keystore.StandardScryptN, keystore.StandardScryptP)
		if len(ks.Accounts()) == 0 {
			return nil, fmt.Errorf("no accounts found in keystore %s", cfg.Keystore)
		}
		return NewKeystoreProvider(ks, cfg.Password), nil
	}

	if cfg.Mnemonic != "" {
		path, err := accounts.ParseDerivationPath(cfg.HDPath)
		if err != nil {
			return nil, err
		}
		key, err := derivePrivateKey(cfg.Mnemonic, path)
		if err != nil {
			return nil, fmt.Errorf("error deriving key from mnemonic: %w", err)
		}
		return NewKeyProvider(key), nil
	}

	return nil, ErrNoProvider
}

func derivePrivateKey(mnemonic string, path accounts.DerivationPath) (*ecdsa.PrivateKey, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, err
	}

	privKey, err := hdkeychain.NewMaster(seed, fakeNetworkParams{})
	if err != nil {
		return nil, err
	}

	for _, child := range path {
		privKey, err = privKey.Child(child)
		if err != nil {
			return nil, err
		}
	}

	rawPrivKey, err := privKey.SerializedPrivKey()
	if err != nil {
		return nil, err
	}

	return crypto.ToECDSA(rawPrivKey)
}

// fakeNetworkParams satisfies hdkeychain; the version bytes are never serialized.
type fakeNetworkParams struct{}

func (f fakeNetworkParams) HDPrivKeyVersion() [4]byte {
	return [4]byte{}
}

func (f fakeNetworkParams) HDPubKeyVersion() [4]byte {
	return [4]byte{}
}

func toRecoverable(sig []byte) []byte {
	sig[crypto.RecoveryIDOffset] += 27
	return sig
}
