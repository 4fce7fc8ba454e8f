package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// EncodeRLE encodes a sequence of palette ids into base64(varint pairs).
// The pairs are (value, run_len) repeated.
func EncodeRLE(ids []uint16) string {
	return encodeRuns(len(ids), func(i int) uint64 { return uint64(ids[i]) })
}

// EncodeLightRLE run-length encodes n light levels stored as packed nibbles
// (low nibble first), the layout chunk light arrays use.
func EncodeLightRLE(packed []byte, n int) string {
	return encodeRuns(n, func(i int) uint64 { return uint64(nibble(packed, i)) })
}

func nibble(packed []byte, i int) uint8 {
	if i&1 == 1 {
		return packed[i>>1] >> 4
	}
	return packed[i>>1] & 0xF
}

func encodeRuns(n int, at func(i int) uint64) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	i := 0
	for i < n {
		v := at(i)
		run := 1
		for j := i + 1; j < n && at(j) == v && run < 1<<31; j++ {
			run++
		}

		k := binary.PutUvarint(tmp[:], v)
		buf.Write(tmp[:k])
		k = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:k])

		i += run
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeRLE decodes palette ids. Input expanding past max values is rejected;
// max <= 0 means no limit.
func DecodeRLE(b64 string, max int) ([]uint16, error) {
	var out []uint16
	err := decodeRuns(b64, max, 0xFFFF, func(v uint64, run int) {
		for k := 0; k < run; k++ {
			out = append(out, uint16(v))
		}
	})
	return out, err
}

// DecodeLightRLE decodes light levels into one byte per voxel.
func DecodeLightRLE(b64 string, max int) ([]uint8, error) {
	var out []uint8
	err := decodeRuns(b64, max, 0xF, func(v uint64, run int) {
		for k := 0; k < run; k++ {
			out = append(out, uint8(v))
		}
	})
	return out, err
}

func decodeRuns(b64 string, max int, maxValue uint64, emit func(v uint64, run int)) error {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return err
	}
	total := 0
	for i := 0; i < len(raw); {
		v, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if v > maxValue {
			return fmt.Errorf("value too large: %d", v)
		}
		if run > 1<<31 || (max > 0 && total+int(run) > max) {
			return fmt.Errorf("run of %d exceeds limit", run)
		}
		total += int(run)
		emit(v, int(run))
	}
	return nil
}
