package remote

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"
)

const (
	// LayerSoftMax caps how much object data goes into one layer before a
	// new one is started.
	LayerSoftMax = 10 * 1024 * 1024

	// LayerMinSize is the point below which adjacent prefix groups are
	// combined into the same layer.
	LayerMinSize = 2 * 1024 * 1024

	// hashLen is the fixed width of a hex sha256 object hash.
	hashLen = 64
)

// PrefixInfo records the content hash of one two-character object prefix
// group and the registry layer it was last uploaded in. Comparing prefix
// hashes lets push and pull skip unchanged groups entirely.
type PrefixInfo struct {
	Hash  string `json:"hash"`
	Layer string `json:"layer"`
}

// GroupByPrefix buckets objects by the first two characters of their hash,
// mirroring the sharded layout of the local object store.
func GroupByPrefix(objects map[string][]byte) map[string]map[string][]byte {
	result := make(map[string]map[string][]byte)
	for hash, data := range objects {
		prefix := "00"
		if len(hash) >= 2 {
			prefix = hash[:2]
		}
		if result[prefix] == nil {
			result[prefix] = make(map[string][]byte)
		}
		result[prefix][hash] = data
	}
	return result
}

// PrefixHash computes a deterministic digest over a prefix group, covering
// object hashes and sizes.
func PrefixHash(objects map[string][]byte) string {
	if len(objects) == 0 {
		return ""
	}

	hashes := make([]string, 0, len(objects))
	for h := range objects {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)

	h := sha256.New()
	for _, hash := range hashes {
		h.Write([]byte(hash))
		binary.Write(h, binary.BigEndian, int64(len(objects[hash])))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// PackObjects packs a set of objects into one layer payload:
//
//	[hash 64B][length 8B][data]...
//
// sorted by hash for deterministic layer bytes.
func PackObjects(objects map[string][]byte) []byte {
	hashes := make([]string, 0, len(objects))
	for h := range objects {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)

	var buf bytes.Buffer
	lenBuf := make([]byte, 8)

	for _, hash := range hashes {
		data := objects[hash]
		buf.WriteString(hash)
		binary.BigEndian.PutUint64(lenBuf, uint64(len(data)))
		buf.Write(lenBuf)
		buf.Write(data)
	}
	return buf.Bytes()
}

// UnpackObjects reverses PackObjects.
func UnpackObjects(data []byte) (map[string][]byte, error) {
	result := make(map[string][]byte)
	buf := bytes.NewReader(data)
	hashBuf := make([]byte, hashLen)

	for buf.Len() > 0 {
		if _, err := buf.Read(hashBuf); err != nil {
			return nil, fmt.Errorf("read hash: %w", err)
		}

		var length uint64
		if err := binary.Read(buf, binary.BigEndian, &length); err != nil {
			return nil, fmt.Errorf("read length: %w", err)
		}
		if length > uint64(buf.Len()) {
			return nil, fmt.Errorf("truncated layer: object of %d bytes, %d remaining", length, buf.Len())
		}

		objData := make([]byte, length)
		if _, err := buf.Read(objData); err != nil {
			return nil, fmt.Errorf("read data: %w", err)
		}

		result[string(hashBuf)] = objData
	}

	return result, nil
}

// BuildLayerPlan groups prefixes into layers, combining small groups and
// splitting once a layer passes the soft maximum.
func BuildLayerPlan(prefixSizes map[string]int64) [][]string {
	prefixes := make([]string, 0, len(prefixSizes))
	for p := range prefixSizes {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	var layers [][]string
	var current []string
	var size int64

	for _, prefix := range prefixes {
		prefixSize := prefixSizes[prefix]

		switch {
		case len(current) == 0:
			current = []string{prefix}
			size = prefixSize
		case size+prefixSize <= LayerSoftMax:
			current = append(current, prefix)
			size += prefixSize
		case size < LayerMinSize && size+prefixSize <= 2*LayerSoftMax:
			current = append(current, prefix)
			size += prefixSize
		default:
			layers = append(layers, current)
			current = []string{prefix}
			size = prefixSize
		}
	}

	if len(current) > 0 {
		layers = append(layers, current)
	}
	return layers
}

// CollectPrefixObjects merges the object maps of the given prefixes.
func CollectPrefixObjects(prefixes []string, byPrefix map[string]map[string][]byte) map[string][]byte {
	result := make(map[string][]byte)
	for _, prefix := range prefixes {
		for hash, data := range byPrefix[prefix] {
			result[hash] = data
		}
	}
	return result
}

// PrefixSizes sums object sizes per prefix group.
func PrefixSizes(byPrefix map[string]map[string][]byte) map[string]int64 {
	result := make(map[string]int64, len(byPrefix))
	for prefix, objects := range byPrefix {
		var total int64
		for _, data := range objects {
			total += int64(len(data))
		}
		result[prefix] = total
	}
	return result
}
