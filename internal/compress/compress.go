// Package compress provides the codec applied to stored extracted text.
package compress

// Compress encodes data before it is persisted and decodes it after a read.
type Compress interface {
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}
