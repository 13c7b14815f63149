package internal

import (
	"bytes"
	"sync"
)

// BufferPool holds scratch buffers for encoding and decoding network payloads.
var BufferPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer([]byte{})
	},
}
