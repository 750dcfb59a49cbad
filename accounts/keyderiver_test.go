package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "test test test test test test test test test test test junk"

func TestKeyDeriverRejectsInvalidMnemonic(t *testing.T) {
	_, err := NewKeyDeriver("not a valid mnemonic at all")
	assert.ErrorIs(t, err, ErrInvalidSeed)
}

func TestKeyDeriverIsDeterministic(t *testing.T) {
	kd, err := NewKeyDeriver(testMnemonic)
	require.NoError(t, err)

	a1, err := kd.Derive(3)
	require.NoError(t, err)
	a2, err := kd.Derive(3)
	require.NoError(t, err)

	assert.Equal(t, a1.Address, a2.Address)
}

func TestKeyDeriverDistinctIndicesDiverge(t *testing.T) {
	kd, err := NewKeyDeriver(testMnemonic)
	require.NoError(t, err)

	funder, err := kd.Derive(0)
	require.NoError(t, err)
	sub, err := kd.Derive(1)
	require.NoError(t, err)

	assert.NotEqual(t, funder.Address, sub.Address)
}

func TestDeriveRangeIndexesSequentially(t *testing.T) {
	kd, err := NewKeyDeriver(testMnemonic)
	require.NoError(t, err)

	accts, err := kd.DeriveRange(5)
	require.NoError(t, err)
	require.Len(t, accts, 5)
	for i, a := range accts {
		assert.Equal(t, uint64(i), a.Index)
	}
}
