package wal

import (
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/vsfs-journal/common"
	"github.com/mit-pdos/vsfs-journal/util"
)

func encodeHdr(used uint64) []byte {
	enc := marshal.NewEnc(HDRSZ)
	enc.PutInt32(uint32(used))
	return enc.Finish()
}

func decodeHdr(b []byte) uint64 {
	dec := marshal.NewDec(b)
	return uint64(dec.GetInt32())
}

func decodeTag(b []byte) recordTag {
	dec := marshal.NewDec(b)
	return recordTag(dec.GetInt32())
}

// encodeData produces a DATA record. The caller has checked that u.Addr fits
// in 32 bits.
func encodeData(u Update) []byte {
	enc := marshal.NewEnc(DATAHDRSZ + uint64(len(u.Block)))
	enc.PutInt32(uint32(tagData))
	enc.PutInt32(uint32(u.Addr))
	b := enc.Finish()
	copy(b[DATAHDRSZ:], u.Block)
	return b
}

func decodeData(b []byte) Update {
	dec := marshal.NewDec(b)
	_ = dec.GetInt32()
	bn := dec.GetInt32()
	return Update{
		Addr:  common.Bnum(bn),
		Block: util.CloneByteSlice(b[DATAHDRSZ:]),
	}
}

func encodeCommit() []byte {
	enc := marshal.NewEnc(COMMITSZ)
	enc.PutInt32(uint32(tagCommit))
	return enc.Finish()
}
