package blobstore

// BlobBytes is an owned, immutable byte buffer of known length. A
// BlobBytes value is cheap to pass to every backend in a fan-out
// concurrently: copying the value only copies the slice header
// (pointer, length, capacity), not the underlying array, so handing
// the same BlobBytes to N goroutines is the Go equivalent of cloning a
// shared-ownership buffer. Callers must treat the underlying array as
// immutable once a BlobBytes has been constructed.
type BlobBytes struct {
	data []byte
}

// NewBlobBytes wraps data as a BlobBytes. The caller must not mutate
// data afterwards.
func NewBlobBytes(data []byte) BlobBytes {
	return BlobBytes{data: data}
}

// Bytes returns the wrapped buffer. The returned slice must not be
// mutated; it may be shared with concurrently running backend
// attempts.
func (b BlobBytes) Bytes() []byte {
	return b.data
}

// Len returns the length of the buffer in bytes.
func (b BlobBytes) Len() int {
	return len(b.data)
}

// BlobData is the payload returned by a successful Get. It shares
// BlobBytes' cheap-clone semantics; the two are kept as distinct names
// because spec.md §6 names them separately (a put takes BlobBytes, a
// get returns BlobData), even though the underlying representation is
// identical.
type BlobData = BlobBytes
