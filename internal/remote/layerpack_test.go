package remote

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hashFor(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}

func TestGroupByPrefix(t *testing.T) {
	objects := map[string][]byte{
		"aa11": []byte("1"),
		"aa22": []byte("2"),
		"bb33": []byte("3"),
	}

	groups := GroupByPrefix(objects)
	require.Len(t, groups, 2)
	assert.Len(t, groups["aa"], 2)
	assert.Len(t, groups["bb"], 1)
}

func TestPrefixHash(t *testing.T) {
	group := map[string][]byte{
		"aa11": []byte("one"),
		"aa22": []byte("two"),
	}

	h1 := PrefixHash(group)
	h2 := PrefixHash(group)
	assert.Equal(t, h1, h2)
	assert.NotEmpty(t, h1)

	// A size change changes the hash.
	group["aa11"] = []byte("one-longer")
	assert.NotEqual(t, h1, PrefixHash(group))

	assert.Empty(t, PrefixHash(nil))
}

func TestPackUnpackRoundTrip(t *testing.T) {
	objects := map[string][]byte{
		hashFor("a"): []byte("payload a"),
		hashFor("b"): []byte("payload b"),
		hashFor("c"): {},
	}

	packed := PackObjects(objects)

	// Packing is deterministic.
	assert.Equal(t, packed, PackObjects(objects))

	unpacked, err := UnpackObjects(packed)
	require.NoError(t, err)
	assert.Equal(t, objects, unpacked)
}

func TestUnpackTruncated(t *testing.T) {
	packed := PackObjects(map[string][]byte{
		hashFor("a"): []byte("payload"),
	})

	_, err := UnpackObjects(packed[:len(packed)-3])
	assert.Error(t, err)
}

func TestBuildLayerPlanCombinesSmallGroups(t *testing.T) {
	sizes := map[string]int64{
		"aa": 100,
		"bb": 100,
		"cc": 100,
	}

	plan := BuildLayerPlan(sizes)
	require.Len(t, plan, 1)
	assert.Equal(t, []string{"aa", "bb", "cc"}, plan[0])
}

func TestBuildLayerPlanSplitsLargeGroups(t *testing.T) {
	sizes := map[string]int64{
		"aa": LayerSoftMax,
		"bb": LayerSoftMax,
		"cc": 100,
	}

	plan := BuildLayerPlan(sizes)
	assert.Len(t, plan, 3)
}

func TestPrefixSizes(t *testing.T) {
	byPrefix := map[string]map[string][]byte{
		"aa": {"aa11": []byte("12345"), "aa22": []byte("678")},
		"bb": {"bb33": []byte("9")},
	}

	sizes := PrefixSizes(byPrefix)
	assert.Equal(t, int64(8), sizes["aa"])
	assert.Equal(t, int64(1), sizes["bb"])
}

func TestCollectPrefixObjects(t *testing.T) {
	byPrefix := map[string]map[string][]byte{
		"aa": {"aa11": []byte("1")},
		"bb": {"bb22": []byte("2")},
		"cc": {"cc33": []byte("3")},
	}

	merged := CollectPrefixObjects([]string{"aa", "cc"}, byPrefix)
	assert.Equal(t, map[string][]byte{
		"aa11": []byte("1"),
		"cc33": []byte("3"),
	}, merged)
}
