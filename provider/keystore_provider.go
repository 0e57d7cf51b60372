package provider

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
)

// keystoreProvider signs with keys from an encrypted keystore directory,
// decrypting them with passphrase for each request.
type keystoreProvider struct {
	ks         *keystore.KeyStore
	passphrase string
}

func NewKeystoreProvider(ks *keystore.KeyStore, passphrase string) Provider {
	return &keystoreProvider{
		ks:         ks,
		passphrase: passphrase,
	}
}

func (p *keystoreProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	accts := p.ks.Accounts()
	addrs := make([]common.Address, 0, len(accts))
	for _, a := range accts {
		addrs = append(addrs, a.Address)
	}
	return addrs, nil
}

func (p *keystoreProvider) PersonalSign(ctx context.Context, message []byte, address common.Address) ([]byte, error) {
	account, err := p.account(address)
	if err != nil {
		return nil, err
	}
	sig, err := p.ks.SignHashWithPassphrase(account, p.passphrase, accounts.TextHash(message))
	if err != nil {
		return nil, err
	}
	return toRecoverable(sig), nil
}

func (p *keystoreProvider) EthSign(ctx context.Context, address common.Address, hash []byte) ([]byte, error) {
	account, err := p.account(address)
	if err != nil {
		return nil, err
	}
	if len(hash) != common.HashLength {
		return nil, ErrInvalidHash
	}
	sig, err := p.ks.SignHashWithPassphrase(account, p.passphrase, hash)
	if err != nil {
		return nil, err
	}
	return toRecoverable(sig), nil
}

func (p *keystoreProvider) account(address common.Address) (accounts.Account, error) {
	if !p.ks.HasAddress(address) {
		return accounts.Account{}, ErrUnknownAccount
	}
	return accounts.Account{Address: address}, nil
}
