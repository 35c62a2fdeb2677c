package grid

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// encodeRLE packs materials as base64(varint material, varint run) pairs.
func encodeRLE(mats []Material) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte
	for i := 0; i < len(mats); {
		m := mats[i]
		run := 1
		for i+run < len(mats) && mats[i+run] == m {
			run++
		}
		n := binary.PutUvarint(tmp[:], uint64(m))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])
		i += run
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func DecodeRLE(s string) ([]Material, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	var out []Material
	for i := 0; i < len(raw); {
		m, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if m > 0xFF {
			return nil, fmt.Errorf("material id too large: %d", m)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, Material(m))
		}
	}
	return out, nil
}
