// Package pools provides object pooling for reducing GC pressure.
//
// This package contains the buffer pooling used by the lsm engine to
// serialize memtables into SSTable bytes without a fresh allocation per
// flush:
//
//   - BytePool: Size-class based byte slice pooling
//   - BufferBuilder: Efficient buffer construction with pooling
package pools
