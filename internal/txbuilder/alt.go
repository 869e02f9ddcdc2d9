package txbuilder

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	addresslookuptable "github.com/gagliardetto/solana-go/programs/address-lookup-table"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/arbbot/internal/chain"
	"github.com/aman-zulfiqar/arbbot/internal/errs"
)

// ALT is a fetched address lookup table, reduced to the fields the message
// compiler needs: its own address and the addresses it resolves.
type ALT struct {
	Key       chain.Addr
	Addresses []chain.Addr
}

// FetchAddressLookupTables loads every configured ALT, skipping (and
// warn-logging) individual failures rather than aborting the whole batch —
// the same tolerant behavior as alt.rs's fetch_address_lookup_tables. It
// only errors when every key in a non-empty input failed to resolve.
func FetchAddressLookupTables(ctx context.Context, client *rpc.Client, keys []chain.Addr, logger *logrus.Logger) ([]ALT, error) {
	if logger == nil {
		logger = logrus.New()
	}

	alts := make([]ALT, 0, len(keys))
	for _, key := range keys {
		table, err := addresslookuptable.GetAddressLookupTable(ctx, client, key)
		if err != nil {
			logger.WithError(err).WithField("alt", key.String()).Warn("skipping address lookup table")
			continue
		}
		alts = append(alts, ALT{Key: key, Addresses: table.Addresses})
	}

	if len(alts) == 0 && len(keys) != 0 {
		return nil, errs.New(errs.KindRPC, "txbuilder.FetchAddressLookupTables",
			fmt.Errorf("failed to fetch any ALTs from %d provided keys", len(keys)))
	}

	logger.WithFields(logrus.Fields{"fetched": len(alts), "requested": len(keys)}).Debug("fetched address lookup tables")
	return alts, nil
}

// ToTableMap converts a slice of ALTs into the map solana.TransactionAddressTables
// expects when compiling a versioned message.
func ToTableMap(alts []ALT) map[solana.PublicKey]solana.PublicKeySlice {
	out := make(map[solana.PublicKey]solana.PublicKeySlice, len(alts))
	for _, a := range alts {
		out[a.Key] = a.Addresses
	}
	return out
}
