package lsm

import (
	"encoding/binary"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/tybulut/lsmio/pkg/pools"
)

// recordHeaderMinSize is the smallest number of bytes a torn trailing
// write could still provide: the key-length prefix.
const recordHeaderMinSize = 4

// sstableNamePattern matches the exact on-disk naming convention,
// L0-NNNNNN.sst, used both to generate new table names and to recognize
// existing ones during recovery.
var sstableNamePattern = regexp.MustCompile(`^L0-(\d{6})\.sst$`)

// SSTablePath returns the path of the SSTable with the given id within
// dir, formatted as L0-NNNNNN.sst.
func SSTablePath(dir string, id uint64) string {
	return filepath.Join(dir, fmt.Sprintf("L0-%06d.sst", id))
}

// ParseSSTableID reports the id encoded in an SSTable file name, if the
// name matches the L0-NNNNNN.sst convention.
func ParseSSTableID(name string) (uint64, bool) {
	m := sstableNamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// appendRecord writes one key/value record in the exact on-disk wire
// format onto bb: u32 key_len | key | u32 val_len | value, little-endian.
// It returns the byte offset at which the record starts within bb.
func appendRecord(bb *pools.BufferBuilder, key, value []byte) int {
	offset := bb.Len()
	bb.WriteUint32LE(uint32(len(key)))
	bb.Write(key)
	bb.WriteUint32LE(uint32(len(value)))
	bb.Write(value)
	return offset
}

// sizedReaderAt is satisfied by golang.org/x/exp/mmap.ReaderAt: random
// access into an mmap'd file plus its total length.
type sizedReaderAt interface {
	io.ReaderAt
	Len() int
}

// recordPeekSize is the number of bytes read speculatively for a
// point lookup: large enough to cover the framing plus a typical key
// and value in one pread, small enough that reading it costs nothing
// even though the mmap'd backing means the "read" is really a
// memory copy. Records that don't fit trigger exactly one fallback
// read: sized to the record's true length when both length prefixes
// fell inside the peek, otherwise running to end-of-file.
const recordPeekSize = 4096

// readRecordAtSingle reads the record at offset, sized only by what
// the index gives it (an offset, not a length): it speculatively
// pulls recordPeekSize bytes in one ReadAt call and parses the record
// out of the front of that buffer, falling back to a second,
// precisely-sized ReadAt only if the record turns out to be larger
// than the peek. This is the "single pread" required by the
// point-read invariant for the common case.
func readRecordAtSingle(r sizedReaderAt, offset int64) (key, value []byte, err error) {
	fileLen := int64(r.Len())
	remaining := fileLen - offset
	if remaining < recordHeaderMinSize {
		return nil, nil, io.ErrUnexpectedEOF
	}

	peek := remaining
	if peek > recordPeekSize {
		peek = recordPeekSize
	}

	buf := make([]byte, peek)
	n, err := r.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, nil, err
	}
	buf = buf[:n]

	key, value, recordLen, ok := parseRecord(buf)
	if ok {
		return key, value, nil
	}

	// The record didn't fully fit in the peek window (a large value).
	// recordLen, if it could be determined from the two length
	// prefixes, tells us exactly how much to re-read; otherwise read to
	// end of file.
	if recordLen <= 0 || offset+recordLen > fileLen {
		recordLen = remaining
	}
	buf = make([]byte, recordLen)
	n, err = r.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, nil, err
	}
	buf = buf[:n]

	key, value, _, ok = parseRecord(buf)
	if !ok {
		return nil, nil, io.ErrUnexpectedEOF
	}
	return key, value, nil
}

// parseRecord attempts to parse one framed record from the front of
// buf. ok is false if buf doesn't hold the whole record; recordLen is
// then the total record length if it could be computed from the
// length prefixes read so far, or 0 if even that much isn't known yet.
func parseRecord(buf []byte) (key, value []byte, recordLen int64, ok bool) {
	if len(buf) < 4 {
		return nil, nil, 0, false
	}
	keyLen := binary.LittleEndian.Uint32(buf[0:4])
	keyEnd := 4 + int64(keyLen)
	if keyEnd+4 > int64(len(buf)) {
		return nil, nil, 0, false
	}

	valLen := binary.LittleEndian.Uint32(buf[keyEnd : keyEnd+4])
	valStart := keyEnd + 4
	valEnd := valStart + int64(valLen)
	recordLen = valEnd
	if valEnd > int64(len(buf)) {
		return nil, nil, recordLen, false
	}

	return buf[4:keyEnd], buf[valStart:valEnd], recordLen, true
}

// scanRecords walks every record in data starting at offset 0, invoking
// fn with each key, value and the record's starting offset. It stops
// cleanly (without error) the moment fewer than recordHeaderMinSize
// bytes remain or a length prefix would read past the end of data,
// tolerating a torn trailing write left by a crash mid-flush.
func scanRecords(data []byte, fn func(key, value []byte, offset int64) bool) {
	pos := 0
	n := len(data)

	for {
		if pos+4 > n {
			return
		}
		keyLen := int(binary.LittleEndian.Uint32(data[pos : pos+4]))
		keyStart := pos + 4
		keyEnd := keyStart + keyLen
		if keyLen < 0 || keyEnd+4 > n {
			return
		}
		valLen := int(binary.LittleEndian.Uint32(data[keyEnd : keyEnd+4]))
		valStart := keyEnd + 4
		valEnd := valStart + valLen
		if valLen < 0 || valEnd > n {
			return
		}

		if !fn(data[keyStart:keyEnd], data[valStart:valEnd], int64(pos)) {
			return
		}
		pos = valEnd
	}
}
