package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/nine-chronicles/sphere-account-metamask/cache"
	"github.com/nine-chronicles/sphere-account-metamask/provider"
	"github.com/nine-chronicles/sphere-account-metamask/signer"
)

var actions = []string{"public-key", "sign", "forget", "serve"}

func main() {
	// Define the flags and parse them.
	var actionFlag string
	var rpcFlag string
	var privateKey string
	var mnemonic string
	var hdPath string
	var keystoreDir string
	var password string
	var addressFlag string
	var cacheDir string
	var compressed bool
	var hashFlag string
	var listen string

	flag.StringVar(&actionFlag, "action", "public-key", fmt.Sprintf("What to do (one of: %s)", strings.Join(actions, ", ")))
	flag.StringVar(&rpcFlag, "rpc", "", "JSON-RPC url of the wallet provider")
	flag.StringVar(&privateKey, "private-key", "", "Private key to use for signing")
	flag.StringVar(&mnemonic, "mnemonic", "", "Mnemonic to use for signing")
	flag.StringVar(&hdPath, "hd-path", "m/44'/60'/0'/0/0", "Hierarchical deterministic derivation path for mnemonic")
	flag.StringVar(&keystoreDir, "keystore", "", "Keystore directory to use for signing")
	flag.StringVar(&password, "password", "", "Keystore passphrase")
	flag.StringVar(&addressFlag, "address", "", "Account address (defaults to the first account of the provider)")
	flag.StringVar(&cacheDir, "cache-dir", "", "Directory of the public key cache (in memory when empty)")
	flag.BoolVar(&compressed, "compressed", false, "Print the compressed public key")
	flag.StringVar(&hashFlag, "hash", "", "Hex encoded hash to sign")
	flag.StringVar(&listen, "listen", "127.0.0.1:8545", "Listen address for the serve action")
	flag.Parse()

	// Set up logging.
	log.SetDefault(oplog.NewLogger(os.Stderr, oplog.DefaultCLIConfig()))

	if err := validateAction(actionFlag); err != nil {
		log.Crit("Invalid flags", "error", err)
	}
	if err := validateProviderOptions(rpcFlag, privateKey, mnemonic, keystoreDir); err != nil {
		log.Crit("Invalid flags", "error", err)
	}

	ctx := context.Background()

	p, err := provider.CreateProvider(ctx, provider.Config{
		RPC:        rpcFlag,
		PrivateKey: privateKey,
		Mnemonic:   mnemonic,
		HDPath:     hdPath,
		Keystore:   keystoreDir,
		Password:   password,
	})
	if err != nil {
		log.Crit("Error creating wallet provider", "error", err)
	}
	if c, ok := p.(io.Closer); ok {
		defer c.Close()
	}

	if actionFlag == "serve" {
		serve(p, listen)
		return
	}

	address, err := resolveAddress(ctx, p, addressFlag)
	if err != nil {
		log.Crit("Error resolving account address", "error", err)
	}

	store := openStore(cacheDir)
	defer store.Close()

	account := signer.NewAccount(address, p, store)

	switch actionFlag {
	case "public-key":
		pub, err := account.PublicKey(ctx, compressed)
		if err != nil {
			log.Crit("Error deriving public key", "error", err)
		}
		fmt.Printf("address: %s\npublic key: %s\n", account.Address(), hex.EncodeToString(pub))
	case "sign":
		hash, err := parseHash(hashFlag)
		if err != nil {
			log.Crit("Invalid flags", "error", err)
		}
		sig, err := account.Sign(ctx, hash)
		if err != nil {
			log.Crit("Error signing hash", "error", err)
		}
		fmt.Println(hex.EncodeToString(sig))
	case "forget":
		if err := account.Forget(); err != nil {
			log.Crit("Error removing cached public key", "error", err)
		}
		fmt.Printf("Forgot public key of %s\n", account.Address())
	}
}

// Validates the selected action.
func validateAction(action string) error {
	for _, a := range actions {
		if a == action {
			return nil
		}
	}
	return fmt.Errorf("unknown action %q", action)
}

// Validates that exactly one wallet provider is selected.
func validateProviderOptions(rpc, privateKey, mnemonic, keystoreDir string) error {
	options := 0
	for _, o := range []string{rpc, privateKey, mnemonic, keystoreDir} {
		if o != "" {
			options++
		}
	}
	if options != 1 {
		return errors.New("one (and only one) of --rpc, --private-key, --mnemonic, --keystore must be set")
	}
	return nil
}

// Picks the account address, asking the provider when none was given.
func resolveAddress(ctx context.Context, p provider.Provider, addressFlag string) (common.Address, error) {
	if addressFlag != "" {
		if !common.IsHexAddress(addressFlag) {
			return common.Address{}, fmt.Errorf("invalid --address %q", addressFlag)
		}
		return common.HexToAddress(addressFlag), nil
	}

	accts, err := p.RequestAccounts(ctx)
	if err != nil {
		return common.Address{}, fmt.Errorf("error requesting accounts: %w", err)
	}
	if len(accts) == 0 {
		return common.Address{}, errors.New("wallet provider exposes no accounts")
	}
	return accts[0], nil
}

func openStore(cacheDir string) cache.Store {
	if cacheDir == "" {
		return cache.NewMemoryStore()
	}
	store, err := cache.NewLevelDBStore(cacheDir)
	if err != nil {
		log.Crit("Error opening public key cache", "error", err)
	}
	return store
}

func parseHash(hashFlag string) ([]byte, error) {
	if hashFlag == "" {
		return nil, errors.New("missing --hash flag")
	}
	hash, err := hex.DecodeString(strings.TrimPrefix(hashFlag, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid --hash: %w", err)
	}
	return hash, nil
}

// Serves the provider over JSON-RPC until the process is stopped.
func serve(p provider.Provider, listen string) {
	srv, err := provider.NewServer(p)
	if err != nil {
		log.Crit("Error creating wallet provider server", "error", err)
	}
	log.Info("Serving wallet provider", "addr", listen)
	if err := http.ListenAndServe(listen, srv); err != nil {
		log.Crit("Wallet provider server stopped", "error", err)
	}
}
