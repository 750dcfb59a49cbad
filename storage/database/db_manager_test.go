package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyL1ThenL2MergesBothSides(t *testing.T) {
	db, err := NewMemoryDBManager()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.ApplyL1Block(&L1Header{Height: 100, Hash: "0xl1"}, []L1Match{
		{UID: 11, L1TxHash: "0xl1hash", L1Height: 100, L1Timestamp: 1234},
	}))
	require.NoError(t, db.ApplyL2Block(&L2Header{Height: 200, Hash: "0xl2"}, []L2Withdrawal{
		{UID: 11, L2TxHash: "0xl2hash", L2Height: 200, L2Timestamp: 5678},
	}, nil))

	row, err := db.GetTxJoinRow(11)
	require.NoError(t, err)
	require.NotNil(t, row)
	require.Equal(t, "0xl1hash", row.L1TxHash)
	require.Equal(t, "0xl2hash", row.L2TxHash)
	require.Equal(t, uint64(200), row.L2Height)
}

func TestReorgRollbackClearsL2Columns(t *testing.T) {
	db, err := NewMemoryDBManager()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.ApplyL2Block(&L2Header{Height: 5, Hash: "0xold"}, nil, nil))
	require.NoError(t, db.ApplyL2Block(&L2Header{Height: 5, Hash: "0xnew"}, []L2Withdrawal{
		{UID: 1, L2TxHash: "0xtx", L2Height: 5, L2Timestamp: 999},
	}, nil))

	orphaned := uint64(5)
	require.NoError(t, db.ApplyL2Block(&L2Header{Height: 6, Hash: "0xnext"}, nil, &orphaned))

	h, err := db.GetL2Header(5)
	require.NoError(t, err)
	require.Nil(t, h)

	row, err := db.GetTxJoinRow(1)
	require.NoError(t, err)
	require.Equal(t, "", row.L2TxHash)
}
