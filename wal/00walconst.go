//  wal implements the vsfs write-ahead journal
//
//  The layout of the journal region:
//  [ hdr | txn | txn | ... | txn | unused ]
//   ^     ^                       ^
//   0     HDRSZ                   HDRSZ+used
//
//  hdr is a single little-endian uint32 holding used, the number of record
//  bytes that belong to committed transactions. A transaction is a run of
//  DATA records (tag, home block number, full block payload) closed by one
//  COMMIT record. Bytes past HDRSZ+used are never interpreted, so a
//  transaction becomes visible exactly when the header covering its COMMIT
//  record reaches the disk.
package wal

const (
	HDRSZ     uint64 = 4 // bytes used by committed records
	TAGSZ     uint64 = 4
	DATAHDRSZ uint64 = TAGSZ + 4 // tag and home block number
	COMMITSZ  uint64 = TAGSZ
)

type recordTag uint32

const (
	tagData   recordTag = 1
	tagCommit recordTag = 2
)

// DataRecordSize is the on-disk size of one DATA record carrying a block of
// blockSize bytes.
func DataRecordSize(blockSize uint64) uint64 {
	return DATAHDRSZ + blockSize
}

// TxnSize is the number of journal bytes a transaction of n blocks occupies.
func TxnSize(blockSize uint64, n uint64) uint64 {
	return n*DataRecordSize(blockSize) + COMMITSZ
}
