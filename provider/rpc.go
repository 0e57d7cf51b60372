package provider

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// RPCProvider forwards requests to a wallet reachable over JSON-RPC.
type RPCProvider struct {
	client *rpc.Client
}

func NewRPCProvider(client *rpc.Client) *RPCProvider {
	return &RPCProvider{client: client}
}

func DialRPCProvider(ctx context.Context, url string) (*RPCProvider, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("error dialing wallet provider: %w", err)
	}
	return NewRPCProvider(client), nil
}

func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var accts []common.Address
	if err := p.client.CallContext(ctx, &accts, "eth_requestAccounts"); err != nil {
		return nil, fmt.Errorf("eth_requestAccounts: %w", err)
	}
	return accts, nil
}

func (p *RPCProvider) PersonalSign(ctx context.Context, message []byte, address common.Address) ([]byte, error) {
	var sig hexutil.Bytes
	if err := p.client.CallContext(ctx, &sig, "personal_sign", hexutil.Bytes(message), address); err != nil {
		return nil, fmt.Errorf("personal_sign: %w", err)
	}
	return sig, nil
}

func (p *RPCProvider) EthSign(ctx context.Context, address common.Address, hash []byte) ([]byte, error) {
	var sig hexutil.Bytes
	if err := p.client.CallContext(ctx, &sig, "eth_sign", address, hexutil.Bytes(hash)); err != nil {
		return nil, fmt.Errorf("eth_sign: %w", err)
	}
	return sig, nil
}

func (p *RPCProvider) Close() error {
	p.client.Close()
	return nil
}
