package accounts

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestNonceBookReserveIsContiguousFromSeed(t *testing.T) {
	nb := NewNonceBook()
	addr := common.HexToAddress("0x1")
	nb.Seed(addr, 7)

	block := nb.Reserve(addr, 5)
	assert.Equal(t, []uint64{7, 8, 9, 10, 11}, block)
	assert.Equal(t, uint64(12), nb.Peek(addr))
}

func TestNonceBookReserveAdvancesAcrossCalls(t *testing.T) {
	nb := NewNonceBook()
	addr := common.HexToAddress("0x2")

	first := nb.Reserve(addr, 3)
	second := nb.Reserve(addr, 2)

	assert.Equal(t, []uint64{0, 1, 2}, first)
	assert.Equal(t, []uint64{3, 4}, second)
}

func TestNonceBookIsPerAddress(t *testing.T) {
	nb := NewNonceBook()
	a := common.HexToAddress("0xa")
	b := common.HexToAddress("0xb")
	nb.Seed(a, 100)

	nb.Reserve(a, 1)
	assert.Equal(t, uint64(0), nb.Peek(b))
}
