package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oxhq/indexdb/internal/codec"
)

func TestKeyOrderingMatchesCodeOrdering(t *testing.T) {
	primary := CodePrimary(codec.Code(1))
	lo := Key(MapProvidersByUSR, primary, CodeValue(codec.Code(10)))
	hi := Key(MapProvidersByUSR, primary, CodeValue(codec.Code(20)))
	assert.Less(t, string(lo), string(hi), "byte-wise key order must follow big-endian-like value order for dup-sort iteration")
}

func TestPrefixIsPrefixOfKey(t *testing.T) {
	primary := CodePrimary(codec.Code(5))
	value := CodeValue(codec.Code(77))
	key := Key(MapUnitByFileDependency, primary, value)
	prefix := Prefix(MapUnitByFileDependency, primary)
	assert.True(t, len(key) > len(prefix))
	assert.Equal(t, prefix, key[:len(prefix)])
}

func TestSingleKeyMatchesPrefix(t *testing.T) {
	primary := CodePrimary(codec.Code(3))
	assert.Equal(t, Prefix(MapDirNameByCode, primary), SingleKey(MapDirNameByCode, primary))
}

func TestDistinctMapsDoNotCollide(t *testing.T) {
	primary := CodePrimary(codec.Code(1))
	a := SingleKey(MapDirNameByCode, primary)
	b := SingleKey(MapFilenameByCode, primary)
	assert.NotEqual(t, a, b)
}

func TestCodeValueRoundTrip(t *testing.T) {
	c := codec.Code(0xDEADBEEFCAFE)
	assert.Equal(t, c, DecodeCodeValue(CodeValue(c)))
}

func TestNamePrimaryOrderingIsByteWise(t *testing.T) {
	assert.Less(t, string(NamePrimary("apple")), string(NamePrimary("banana")))
}

func TestGlobalKindPrimaryIsSingleByte(t *testing.T) {
	b := GlobalKindPrimary(GlobalKindTestMethod)
	assert.Len(t, b, 1)
	assert.Equal(t, byte(GlobalKindTestMethod), b[0])
}

func TestSortedDuplicateClassification(t *testing.T) {
	assert.True(t, MapProvidersByUSR.SortedDuplicate())
	assert.True(t, MapProvidersWithTestSymbols.SortedDuplicate())
	assert.False(t, MapDirNameByCode.SortedDuplicate())
	assert.False(t, MapSymbolInfoByProviderUSR.SortedDuplicate())
	assert.False(t, MapExplicitOutputUnits.SortedDuplicate())
}
