package provider

import (
	"context"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// keyProvider is an in-process wallet holding a single private key.
type keyProvider struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

func NewKeyProvider(key *ecdsa.PrivateKey) Provider {
	return &keyProvider{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

func (p *keyProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{p.address}, nil
}

func (p *keyProvider) PersonalSign(ctx context.Context, message []byte, address common.Address) ([]byte, error) {
	if address != p.address {
		return nil, ErrUnknownAccount
	}
	sig, err := crypto.Sign(accounts.TextHash(message), p.key)
	if err != nil {
		return nil, err
	}
	return toRecoverable(sig), nil
}

func (p *keyProvider) EthSign(ctx context.Context, address common.Address, hash []byte) ([]byte, error) {
	if address != p.address {
		return nil, ErrUnknownAccount
	}
	if len(hash) != common.HashLength {
		return nil, ErrInvalidHash
	}
	sig, err := crypto.Sign(hash, p.key)
	if err != nil {
		return nil, err
	}
	return toRecoverable(sig), nil
}
