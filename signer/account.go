// Package signer implements a Sphere account whose keys live in a wallet
// provider. The public key is recovered once from a personal_sign signature
// and cached; hashes are signed with eth_sign and returned DER-encoded.
package signer

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/singleflight"

	"github.com/nine-chronicles/sphere-account-metamask/cache"
	"github.com/nine-chronicles/sphere-account-metamask/provider"
)

const (
	accountVersion = 0

	cacheKeyPrefix = "SPHERE_ACCOUNT_METAMASK_PUBLIC_KEY_FOR_"
)

// derivationMessage is signed with personal_sign to recover the public key.
var derivationMessage = []byte("Signing request to derive public key from signature")

var (
	ErrAccountNotEnabled = errors.New("account is not exposed by the wallet provider")
	ErrAddressMismatch   = errors.New("recovered public key does not match account address")
)

type Account struct {
	address  common.Address
	provider provider.Provider
	store    cache.Store
	group    singleflight.Group
	log      log.Logger
}

func NewAccount(address common.Address, p provider.Provider, store cache.Store) *Account {
	return &Account{
		address:  address,
		provider: p,
		store:    store,
		log:      log.New("account", address),
	}
}

// CacheKey is the store key holding the public key of address.
func CacheKey(address common.Address) string {
	return cacheKeyPrefix + strings.ToLower(address.Hex())
}

func (a *Account) Version() int {
	return accountVersion
}

func (a *Account) Address() common.Address {
	return a.address
}

// PublicKey returns the account's secp256k1 public key, 65 bytes
// uncompressed or 33 bytes compressed. The provider is only asked for a
// signature when no valid key is cached.
func (a *Account) PublicKey(ctx context.Context, compressed bool) ([]byte, error) {
	pub := a.cachedPublicKey()
	if pub == nil {
		// The derivation is shared by every waiting caller, so it must not
		// inherit the cancellation of whichever caller started it.
		shared := context.WithoutCancel(ctx)
		ch := a.group.DoChan(a.address.Hex(), func() (interface{}, error) {
			if pub := a.cachedPublicKey(); pub != nil {
				return pub, nil
			}
			return a.derivePublicKey(shared)
		})
		select {
		case res := <-ch:
			if res.Err != nil {
				return nil, res.Err
			}
			pub = res.Val.(*ecdsa.PublicKey)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if compressed {
		return crypto.CompressPubkey(pub), nil
	}
	return crypto.FromECDSAPub(pub), nil
}

// Sign asks the provider to sign hash and returns the low-S DER signature.
func (a *Account) Sign(ctx context.Context, hash []byte) ([]byte, error) {
	if err := a.enable(ctx); err != nil {
		return nil, err
	}
	sig, err := a.provider.EthSign(ctx, a.address, hash)
	if err != nil {
		return nil, fmt.Errorf("error requesting signature: %w", err)
	}
	return NormalizeSignature(sig)
}

// Forget drops the cached public key.
func (a *Account) Forget() error {
	return a.store.Delete(CacheKey(a.address))
}

func (a *Account) enable(ctx context.Context) error {
	accts, err := a.provider.RequestAccounts(ctx)
	if err != nil {
		return fmt.Errorf("error enabling wallet provider: %w", err)
	}
	for _, acct := range accts {
		if acct == a.address {
			return nil
		}
	}
	return ErrAccountNotEnabled
}

func (a *Account) cachedPublicKey() *ecdsa.PublicKey {
	value, err := a.store.Get(CacheKey(a.address))
	if errors.Is(err, cache.ErrNotFound) {
		return nil
	}
	if err != nil {
		a.log.Warn("Failed to read cached public key", "err", err)
		return nil
	}

	raw, err := hex.DecodeString(value)
	if err != nil {
		a.log.Debug("Ignoring malformed cached public key", "err", err)
		return nil
	}
	pub, err := crypto.UnmarshalPubkey(raw)
	if err != nil {
		a.log.Debug("Ignoring malformed cached public key", "err", err)
		return nil
	}
	if crypto.PubkeyToAddress(*pub) != a.address {
		a.log.Warn("Ignoring cached public key of another address", "derived", crypto.PubkeyToAddress(*pub))
		return nil
	}
	return pub
}

func (a *Account) derivePublicKey(ctx context.Context) (*ecdsa.PublicKey, error) {
	if err := a.enable(ctx); err != nil {
		return nil, err
	}

	sig, err := a.provider.PersonalSign(ctx, derivationMessage, a.address)
	if err != nil {
		return nil, fmt.Errorf("error requesting signature: %w", err)
	}
	pub, err := RecoverPublicKey(accounts.TextHash(derivationMessage), sig)
	if err != nil {
		return nil, fmt.Errorf("error recovering public key: %w", err)
	}
	if crypto.PubkeyToAddress(*pub) != a.address {
		return nil, ErrAddressMismatch
	}

	if err := a.store.Put(CacheKey(a.address), hex.EncodeToString(crypto.FromECDSAPub(pub))); err != nil {
		a.log.Warn("Failed to cache public key", "err", err)
	}
	a.log.Info("Derived public key from wallet signature")
	return pub, nil
}
