// Copyright 2018 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.

// This file parses raw UTXO-chain block payloads the way the teacher's
// blockchain/types decoders parse RLP-encoded klaytn blocks: fixed-width
// header fields followed by a variable-length transaction list, here
// little-endian and VarInt-delimited per spec.md §4.11.

package reconcile

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/klaytn/loadgen/params"
)

// ErrBlockTooShort rejects a pub/sub payload shorter than an 80-byte header.
var ErrBlockTooShort = fmt.Errorf("reconcile: raw block payload shorter than %d bytes", params.L1RawBlockMinBytes)

// L1Block is one parsed raw L1 block: its header plus decoded transactions.
type L1Block struct {
	Hash       [32]byte
	Version    int32
	PrevHash   [32]byte
	MerkleRoot [32]byte
	Timestamp  uint32
	Bits       uint32
	Nonce      uint32
	Height     uint64
	Txs        []L1Tx
	SizeBytes  int
}

// L1Tx is one decoded transaction: its hash and any P2PKH outputs matched
// against a target hash (spec.md §4.11).
type L1Tx struct {
	Hash      [32]byte
	P2PKHOuts []P2PKHOutput
}

// P2PKHOutput is one pay-to-public-key-hash output.
type P2PKHOutput struct {
	Hash20 [20]byte
	Value  uint64 // satoshis, little-endian on the wire
}

// ParseBlock decodes an 80-byte header followed by a variable-length
// transaction list (spec.md §4.11). SegWit payloads are not supported.
func ParseBlock(raw []byte) (*L1Block, error) {
	if len(raw) < params.L1RawBlockMinBytes {
		return nil, ErrBlockTooShort
	}

	header := raw[:80]
	block := &L1Block{
		Hash:       doubleSHA256Reversed(header),
		Version:    int32(binary.LittleEndian.Uint32(header[0:4])),
		Timestamp:  binary.LittleEndian.Uint32(header[68:72]),
		Bits:       binary.LittleEndian.Uint32(header[72:76]),
		Nonce:      binary.LittleEndian.Uint32(header[76:80]),
		SizeBytes:  len(raw),
	}
	reverseCopy(block.PrevHash[:], header[4:36])
	reverseCopy(block.MerkleRoot[:], header[36:68])

	r := &cursor{buf: raw, pos: 80}
	txCount, err := r.readVarInt()
	if err != nil {
		return nil, err
	}

	for i := uint64(0); i < txCount; i++ {
		txStart := r.pos
		tx, err := parseTx(r)
		if err != nil {
			return nil, err
		}
		tx.Hash = doubleSHA256Reversed(raw[txStart:r.pos])
		if i == 0 {
			block.Height = extractCoinbaseHeight(tx, raw[txStart:r.pos])
		}
		block.Txs = append(block.Txs, tx)
	}
	return block, nil
}

// cursor is a forward-only byte reader, grounded on the teacher's rlp.Stream
// usage pattern for sequential decoding.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) need(n int) error {
	if c.pos+n > len(c.buf) {
		return fmt.Errorf("reconcile: truncated payload at offset %d", c.pos)
	}
	return nil
}

func (c *cursor) readBytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	out := c.buf[c.pos : c.pos+n]
	c.pos += n
	return out, nil
}

func (c *cursor) readUint32() (uint32, error) {
	b, err := c.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) readUint64() (uint64, error) {
	b, err := c.readBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// readVarInt reads the standard UTXO-chain compact size encoding.
func (c *cursor) readVarInt() (uint64, error) {
	b, err := c.readBytes(1)
	if err != nil {
		return 0, err
	}
	switch b[0] {
	case 0xfd:
		v, err := c.readBytes(2)
		if err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint16(v)), nil
	case 0xfe:
		v, err := c.readUint32()
		return uint64(v), err
	case 0xff:
		return c.readUint64()
	default:
		return uint64(b[0]), nil
	}
}

func parseTx(r *cursor) (L1Tx, error) {
	var tx L1Tx

	if _, err := r.readUint32(); err != nil { // version
		return tx, err
	}

	vinCount, err := r.readVarInt()
	if err != nil {
		return tx, err
	}
	for i := uint64(0); i < vinCount; i++ {
		if _, err := r.readBytes(32 + 4); err != nil { // prevHash + index
			return tx, err
		}
		scriptLen, err := r.readVarInt()
		if err != nil {
			return tx, err
		}
		if _, err := r.readBytes(int(scriptLen)); err != nil {
			return tx, err
		}
		if _, err := r.readUint32(); err != nil { // sequence
			return tx, err
		}
	}

	voutCount, err := r.readVarInt()
	if err != nil {
		return tx, err
	}
	for i := uint64(0); i < voutCount; i++ {
		value, err := r.readUint64()
		if err != nil {
			return tx, err
		}
		scriptLen, err := r.readVarInt()
		if err != nil {
			return tx, err
		}
		script, err := r.readBytes(int(scriptLen))
		if err != nil {
			return tx, err
		}
		if hash, ok := matchP2PKH(script); ok {
			tx.P2PKHOuts = append(tx.P2PKHOuts, P2PKHOutput{Hash20: hash, Value: value})
		}
	}

	if _, err := r.readUint32(); err != nil { // lockTime
		return tx, err
	}
	return tx, nil
}

// matchP2PKH recognizes OP_DUP OP_HASH160 <20> OP_EQUALVERIFY OP_CHECKSIG.
func matchP2PKH(script []byte) ([20]byte, bool) {
	var hash [20]byte
	const (
		opDup         = 0x76
		opHash160     = 0xa9
		opEqualVerify = 0x88
		opCheckSig    = 0xac
	)
	if len(script) != 25 {
		return hash, false
	}
	if script[0] != opDup || script[1] != opHash160 || script[2] != 0x14 {
		return hash, false
	}
	if script[23] != opEqualVerify || script[24] != opCheckSig {
		return hash, false
	}
	copy(hash[:], script[3:23])
	return hash, true
}

// extractCoinbaseHeight reads BIP-34's height push from the coinbase input
// script: the first pushed bytes, interpreted little-endian.
func extractCoinbaseHeight(tx L1Tx, raw []byte) uint64 {
	// The coinbase scriptSig begins after: 4(version) + 1(vin count=1) +
	// 32(prevHash, all zero) + 4(index, 0xffffffff) + scriptLen varint.
	if len(raw) < 4+1+32+4+1 {
		return 0
	}
	pos := 4 + 1 + 32 + 4
	scriptLen := int(raw[pos])
	pos++
	if scriptLen == 0 || pos+scriptLen > len(raw) {
		return 0
	}
	pushLen := int(raw[pos])
	pos++
	if pushLen == 0 || pushLen > 8 || pos+pushLen > len(raw) {
		return 0
	}
	var height uint64
	for i := 0; i < pushLen; i++ {
		height |= uint64(raw[pos+i]) << (8 * i)
	}
	return height
}

func doubleSHA256Reversed(b []byte) [32]byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	var out [32]byte
	reverseCopy(out[:], second[:])
	return out
}

func reverseCopy(dst, src []byte) {
	n := len(src)
	for i := 0; i < n; i++ {
		dst[i] = src[n-1-i]
	}
}
