package reconcile

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildCoinbaseTx(height uint64) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(1)) // version
	buf.WriteByte(1)                                   // vin count
	buf.Write(make([]byte, 32))                        // prevHash (zero)
	binary.Write(&buf, binary.LittleEndian, uint32(0xffffffff))

	var script bytes.Buffer
	heightBytes := []byte{byte(height), byte(height >> 8), byte(height >> 16)}
	script.WriteByte(byte(len(heightBytes)))
	script.Write(heightBytes)

	buf.WriteByte(byte(script.Len()))
	buf.Write(script.Bytes())
	binary.Write(&buf, binary.LittleEndian, uint32(0xffffffff)) // sequence

	buf.WriteByte(0) // vout count
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	return buf.Bytes()
}

func buildP2PKHTx(target [20]byte, value uint64) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(1)) // version
	buf.WriteByte(1)                                   // vin count
	buf.Write(make([]byte, 32))
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	buf.WriteByte(0) // empty scriptSig
	binary.Write(&buf, binary.LittleEndian, uint32(0xffffffff))

	buf.WriteByte(1) // vout count
	binary.Write(&buf, binary.LittleEndian, value)

	script := append([]byte{0x76, 0xa9, 0x14}, target[:]...)
	script = append(script, 0x88, 0xac)
	buf.WriteByte(byte(len(script)))
	buf.Write(script)

	binary.Write(&buf, binary.LittleEndian, uint32(0)) // lockTime
	return buf.Bytes()
}

func buildBlock(txs ...[]byte) []byte {
	header := make([]byte, 80)
	var buf bytes.Buffer
	buf.Write(header)
	buf.WriteByte(byte(len(txs)))
	for _, tx := range txs {
		buf.Write(tx)
	}
	return buf.Bytes()
}

func TestParseBlockRejectsShortPayload(t *testing.T) {
	_, err := ParseBlock(make([]byte, 10))
	require.ErrorIs(t, err, ErrBlockTooShort)
}

func TestParseBlockExtractsHeightAndP2PKHMatch(t *testing.T) {
	var target [20]byte
	target[0] = 0xab

	coinbase := buildCoinbaseTx(123456)
	payment := buildP2PKHTx(target, 110000000)

	raw := buildBlock(coinbase, payment)
	block, err := ParseBlock(raw)
	require.NoError(t, err)
	require.Equal(t, uint64(123456), block.Height)
	require.Len(t, block.Txs, 2)
	require.Len(t, block.Txs[1].P2PKHOuts, 1)
	require.Equal(t, target, block.Txs[1].P2PKHOuts[0].Hash20)
	require.Equal(t, uint64(110000000), block.Txs[1].P2PKHOuts[0].Value)
}
