package signer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	decredecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrInvalidSignature = errors.New("invalid signature")

// RecoverPublicKey recovers the signing key from a 65-byte r || s || v
// signature. Both 0/1 and 27/28 recovery ids are accepted.
func RecoverPublicKey(hash, sig []byte) (*ecdsa.PublicKey, error) {
	if len(sig) != crypto.SignatureLength {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(sig))
	}
	raw := make([]byte, len(sig))
	copy(raw, sig)
	if raw[crypto.RecoveryIDOffset] >= 27 {
		raw[crypto.RecoveryIDOffset] -= 27
	}
	return crypto.SigToPub(hash, raw)
}

// NormalizeSignature takes the r || s prefix of sig, moves s into the lower
// half of the curve order and returns the DER encoding.
func NormalizeSignature(sig []byte) ([]byte, error) {
	if len(sig) < 64 {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(sig))
	}

	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(sig[:32]); overflow || r.IsZero() {
		return nil, fmt.Errorf("%w: r out of range", ErrInvalidSignature)
	}
	if overflow := s.SetByteSlice(sig[32:64]); overflow || s.IsZero() {
		return nil, fmt.Errorf("%w: s out of range", ErrInvalidSignature)
	}
	if s.IsOverHalfOrder() {
		s.Negate()
	}
	return decredecdsa.NewSignature(&r, &s).Serialize(), nil
}

// VerifySignature reports whether der is a valid signature of hash by pub.
func VerifySignature(pub, hash, der []byte) bool {
	key, err := secp256k1.ParsePubKey(pub)
	if err != nil {
		return false
	}
	sig, err := decredecdsa.ParseDERSignature(der)
	if err != nil {
		return false
	}
	return sig.Verify(hash, key)
}

// DeriveAddress returns the address of a compressed or uncompressed public key.
func DeriveAddress(pub []byte) (common.Address, error) {
	var (
		key *ecdsa.PublicKey
		err error
	)
	switch len(pub) {
	case 33:
		key, err = crypto.DecompressPubkey(pub)
	case 65:
		key, err = crypto.UnmarshalPubkey(pub)
	default:
		return common.Address{}, fmt.Errorf("invalid public key length %d", len(pub))
	}
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*key), nil
}
