package w3g

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/sync/errgroup"
)

// Inflater inflates one compressed block. hint is the declared decompressed
// size of the block; implementations may use it as an output bound.
type Inflater interface {
	Inflate(compressed []byte, hint int) ([]byte, error)
}

// ZlibInflater inflates zlib streams. Output is capped at the size hint, and
// a stream that ends without its trailer is accepted as long as it produced data.
type ZlibInflater struct{}

// Inflate implements Inflater.
func (ZlibInflater) Inflate(compressed []byte, hint int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var out bytes.Buffer
	out.Grow(hint)
	_, err = io.Copy(&out, io.LimitReader(r, int64(hint)))
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) && out.Len() > 0 {
			return out.Bytes(), nil
		}
		return nil, err
	}
	return out.Bytes(), nil
}

// blockFrame is one compressed block as framed in the file.
//
// Block header (12 bytes):
//   - Offset 0x00: compressed size (1 dword), header excluded
//   - Offset 0x04: decompressed size (1 dword)
//   - Offset 0x08: header checksum (1 word)
//   - Offset 0x0A: data checksum (1 word)
//   - Offset 0x0C: compressed data (zlib)
type blockFrame struct {
	index          int
	offset         int
	header         []byte
	data           []byte
	inflatedLength uint32
	headerChecksum uint16
	dataChecksum   uint16
}

// readBlockFrames reads up to count block frames. A frame that cannot be read
// completely ends the list without an error.
func readBlockFrames(c *cursor, count uint32, diag Diagnostics) []blockFrame {
	c.stage = StageBlocks

	capacity := int(count)
	if limit := c.Remaining() / BlockHeaderSize; capacity > limit {
		capacity = limit
	}
	frames := make([]blockFrame, 0, capacity)

	for i := 0; uint32(i) < count; i++ {
		offset := c.Pos()
		header, err := c.Bytes(BlockHeaderSize, "read block header")
		if err != nil {
			diag.BlockFailed(i, err)
			break
		}
		compressedLength := binary.LittleEndian.Uint32(header[0:])
		if uint64(compressedLength) > uint64(c.Remaining()) {
			diag.BlockFailed(i, c.truncated("read block data", int(compressedLength)))
			break
		}
		data, _ := c.Bytes(int(compressedLength), "read block data")

		frames = append(frames, blockFrame{
			index:          i,
			offset:         offset,
			header:         header,
			data:           data,
			inflatedLength: binary.LittleEndian.Uint32(header[4:]),
			headerChecksum: binary.LittleEndian.Uint16(header[8:]),
			dataChecksum:   binary.LittleEndian.Uint16(header[10:]),
		})
	}

	return frames
}

// blockChecksum folds a CRC-32 into the 16-bit form stored in block headers.
func blockChecksum(b []byte) uint16 {
	sum := crc32.ChecksumIEEE(b)
	return uint16(sum ^ sum>>16)
}

// verify checks both block checksums. The header checksum covers the two
// length fields followed by four zero bytes.
func (f *blockFrame) verify() error {
	var h [BlockHeaderSize]byte
	copy(h[:8], f.header[:8])
	if sum := blockChecksum(h[:]); sum != f.headerChecksum {
		return newChecksumError(f.index, "header", f.headerChecksum, sum, f.offset)
	}
	if sum := blockChecksum(f.data); sum != f.dataChecksum {
		return newChecksumError(f.index, "data", f.dataChecksum, sum, f.offset+BlockHeaderSize)
	}
	return nil
}

// inflateBlocks inflates frames and joins them in order. The first block that
// fails to inflate is reported and ends the stream; later blocks are dropped.
func inflateBlocks(frames []blockFrame, inflater Inflater, workers int, diag Diagnostics) []byte {
	results := make([][]byte, len(frames))
	errs := make([]error, len(frames))

	if workers <= 1 {
		for i := range frames {
			results[i], errs[i] = inflater.Inflate(frames[i].data, int(frames[i].inflatedLength))
			if errs[i] != nil {
				break
			}
		}
	} else {
		var g errgroup.Group
		g.SetLimit(workers)
		for i := range frames {
			i := i
			g.Go(func() error {
				results[i], errs[i] = inflater.Inflate(frames[i].data, int(frames[i].inflatedLength))
				return nil
			})
		}
		_ = g.Wait()
	}

	size := 0
	for _, r := range results {
		size += len(r)
	}
	out := make([]byte, 0, size)
	for i := range frames {
		if errs[i] != nil {
			diag.BlockFailed(i, newDecompressionError(i, frames[i].offset, errs[i]))
			break
		}
		diag.BlockInflated(i, len(frames[i].data), len(results[i]))
		out = append(out, results[i]...)
	}
	return out
}

// decompressBlocks reads the block list that follows the header and returns
// the logical data stream.
func decompressBlocks(c *cursor, header *ReplayHeader, opts *options) ([]byte, error) {
	frames := readBlockFrames(c, header.NumCompressedBlocks, opts.diagnostics)
	if opts.strict {
		for i := range frames {
			if err := frames[i].verify(); err != nil {
				return nil, err
			}
		}
	}
	return inflateBlocks(frames, opts.inflater, opts.workers, opts.diagnostics), nil
}
