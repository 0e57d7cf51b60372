package provider

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// NewServer exposes p over JSON-RPC with the method set a browser wallet
// answers: eth_requestAccounts, eth_accounts, eth_sign and personal_sign.
func NewServer(p Provider) (*rpc.Server, error) {
	srv := rpc.NewServer()
	if err := srv.RegisterName("eth", &ethAPI{p}); err != nil {
		return nil, err
	}
	if err := srv.RegisterName("personal", &personalAPI{p}); err != nil {
		return nil, err
	}
	return srv, nil
}

type ethAPI struct {
	p Provider
}

func (api *ethAPI) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return api.p.RequestAccounts(ctx)
}

func (api *ethAPI) Accounts(ctx context.Context) ([]common.Address, error) {
	return api.p.RequestAccounts(ctx)
}

func (api *ethAPI) Sign(ctx context.Context, address common.Address, hash hexutil.Bytes) (hexutil.Bytes, error) {
	return api.p.EthSign(ctx, address, hash)
}

type personalAPI struct {
	p Provider
}

func (api *personalAPI) Sign(ctx context.Context, message hexutil.Bytes, address common.Address) (hexutil.Bytes, error) {
	return api.p.PersonalSign(ctx, message, address)
}
