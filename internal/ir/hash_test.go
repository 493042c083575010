package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintDeterminism(t *testing.T) {
	doc := Tag("MDeal", IRObject{"name": Str("deal"), "status": Tag("Amortizing")})

	fp1, err := Fingerprint(DomainDeal, doc)
	require.NoError(t, err)
	fp2, err := Fingerprint(DomainDeal, doc)
	require.NoError(t, err)

	assert.Equal(t, fp1, fp2)
	assert.Len(t, fp1, 64)
}

func TestFingerprintIgnoresConstructionOrder(t *testing.T) {
	a := IRObject{"x": IRInt(1), "y": IRInt(2)}
	b := IRObject{"y": IRInt(2), "x": IRInt(1)}
	assert.Equal(t, MustFingerprint(DomainDeal, a), MustFingerprint(DomainDeal, b))
}

func TestFingerprintDecimalScale(t *testing.T) {
	// 0.50 and 0.5 are the same amount and serialize the same way
	assert.Equal(t,
		MustFingerprint(DomainDeal, MustNum("0.50")),
		MustFingerprint(DomainDeal, MustNum("0.5")))
}

func TestFingerprintChangesWithContent(t *testing.T) {
	a := Tag("Fix", MustNum("0.05"))
	b := Tag("Fix", MustNum("0.06"))
	assert.NotEqual(t, MustFingerprint(DomainDeal, a), MustFingerprint(DomainDeal, b))
}

func TestDomainSeparation(t *testing.T) {
	v := Tag("PoolLevel", Arr())
	assert.NotEqual(t, MustFingerprint(DomainDeal, v), MustFingerprint(DomainAssumption, v))
}

func TestHashWithDomainNullSeparator(t *testing.T) {
	// "ab" + 0x00 + "c" must differ from "a" + 0x00 + "bc"
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))

	sum := sha256.Sum256(append([]byte("d\x00"), []byte("x")...))
	assert.Equal(t, hex.EncodeToString(sum[:]), hashWithDomain("d", []byte("x")))
}

func TestMustFingerprintPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustFingerprint(DomainDeal, IRArray{badValue{}})
	})
}

type badValue struct{}

func (badValue) irValue() {}
