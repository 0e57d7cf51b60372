package signer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer lets the account drive Ethereum tooling built on bind.TransactOpts.
type Signer interface {
	Address() common.Address
	SignerFn(chainID *big.Int) bind.SignerFn
	SignData([]byte) ([]byte, error)
}

var _ Signer = (*Account)(nil)

// SignerFn returns a signer function that signs transactions through eth_sign.
func (a *Account) SignerFn(chainID *big.Int) bind.SignerFn {
	signer := types.LatestSignerForChainID(chainID)
	return func(address common.Address, tx *types.Transaction) (*types.Transaction, error) {
		if address != a.address {
			return nil, bind.ErrNotAuthorized
		}
		sig, err := a.provider.EthSign(context.Background(), a.address, signer.Hash(tx).Bytes())
		if err != nil {
			return nil, err
		}
		if len(sig) != crypto.SignatureLength {
			return nil, ErrInvalidSignature
		}
		if sig[crypto.RecoveryIDOffset] >= 27 {
			sig[crypto.RecoveryIDOffset] -= 27
		}
		return tx.WithSignature(signer, sig)
	}
}

// SignData signs data with personal_sign. The result has v in {27, 28}.
func (a *Account) SignData(data []byte) ([]byte, error) {
	sig, err := a.provider.PersonalSign(context.Background(), data, a.address)
	if err != nil {
		return nil, err
	}
	if len(sig) != crypto.SignatureLength {
		return nil, ErrInvalidSignature
	}
	if sig[crypto.RecoveryIDOffset] < 27 {
		sig[crypto.RecoveryIDOffset] += 27
	}
	return sig, nil
}
