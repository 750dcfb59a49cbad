package config

import (
	"flag"
	"testing"

	cmdutils "github.com/klaytn/loadgen/cmd/utils"
	"github.com/klaytn/loadgen/work"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func newTestContext(t *testing.T, set func(fs *flag.FlagSet)) *cli.Context {
	fs := flag.NewFlagSet("test", 0)
	fs.String(cmdutils.JSONRPCFlag.Name, "http://localhost:8545", "")
	fs.String(cmdutils.MnemonicFlag.Name, "test mnemonic", "")
	fs.Uint64(cmdutils.SubAccountsFlag.Name, 10, "")
	fs.Int(cmdutils.TransactionsFlag.Name, 2000, "")
	fs.Int(cmdutils.BatchFlag.Name, 20, "")
	fs.Int(cmdutils.ConcurrencyFlag.Name, 10, "")
	fs.String(cmdutils.ModeFlag.Name, "EOA", "")
	fs.Bool(cmdutils.FixedGasPriceFlag.Name, false, "")
	fs.String(cmdutils.MoatAddressFlag.Name, "", "")
	fs.String(cmdutils.TargetAddressFlag.Name, "", "")
	fs.Uint64(cmdutils.NumAccountsFlag.Name, 0, "")
	fs.Uint64(cmdutils.StartIndexFlag.Name, 0, "")
	fs.Uint64(cmdutils.EndIndexFlag.Name, 0, "")
	fs.String(cmdutils.OutputFlag.Name, "", "")
	fs.String(cmdutils.DBPathFlag.Name, "loadgen.db", "")
	if set != nil {
		set(fs)
	}
	return cli.NewContext(nil, fs, nil)
}

func TestFromCLIDefaultsToEOA(t *testing.T) {
	ctx := newTestContext(t, nil)
	cfg, err := FromCLI(ctx)
	require.NoError(t, err)
	require.Equal(t, work.ModeEOA, cfg.Mode)
	require.Equal(t, "test mnemonic", cfg.Mnemonic)
}

func TestFromCLIRejectsMissingMnemonicExceptPendingCount(t *testing.T) {
	ctx := newTestContext(t, func(fs *flag.FlagSet) {
		require.NoError(t, fs.Set(cmdutils.MnemonicFlag.Name, ""))
		require.NoError(t, fs.Set(cmdutils.ModeFlag.Name, "GET_PENDING_COUNT"))
	})
	cfg, err := FromCLI(ctx)
	require.NoError(t, err)
	require.Equal(t, work.ModeGetPendingCount, cfg.Mode)

	ctx2 := newTestContext(t, func(fs *flag.FlagSet) {
		require.NoError(t, fs.Set(cmdutils.MnemonicFlag.Name, ""))
	})
	_, err = FromCLI(ctx2)
	require.ErrorIs(t, err, ErrMissingMnemonic)
}

func TestFromCLIDefaultsClearPendingEndIndex(t *testing.T) {
	ctx := newTestContext(t, func(fs *flag.FlagSet) {
		require.NoError(t, fs.Set(cmdutils.ModeFlag.Name, "CLEAR_PENDING"))
		require.NoError(t, fs.Set(cmdutils.StartIndexFlag.Name, "5"))
		require.NoError(t, fs.Set(cmdutils.NumAccountsFlag.Name, "3"))
	})
	cfg, err := FromCLI(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(8), cfg.EndIndex)
}

func TestParseModeRejectsUnknown(t *testing.T) {
	ctx := newTestContext(t, func(fs *flag.FlagSet) {
		require.NoError(t, fs.Set(cmdutils.ModeFlag.Name, "BOGUS"))
	})
	_, err := FromCLI(ctx)
	require.Error(t, err)
}
