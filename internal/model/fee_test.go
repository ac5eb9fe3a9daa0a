package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeeTitleTable(t *testing.T) {
	assert.Equal(t, "Account Activation Fee", FeeTitle(FeeActivation))
	assert.Equal(t, "Tax Clearance Fee", FeeTitle(FeeTaxClearance))
	assert.Equal(t, "Network Processing Fee", FeeTitle(FeeNetwork))
	assert.Equal(t, "Service Fee", FeeTitle(FeeType("something-else")))
	assert.Equal(t, "Service Fee", FeeTitle(FeeType("")))
}

func TestFeeDescriptionTable(t *testing.T) {
	// Exactly four distinct strings: one per type plus the fallback.
	seen := map[string]bool{
		FeeDescription(FeeActivation):       true,
		FeeDescription(FeeTaxClearance):     true,
		FeeDescription(FeeNetwork):          true,
		FeeDescription(FeeType("whatever")): true,
	}
	assert.Len(t, seen, 4)
}

func TestFeeTypeValid(t *testing.T) {
	assert.True(t, FeeActivation.Valid())
	assert.True(t, FeeTaxClearance.Valid())
	assert.True(t, FeeNetwork.Valid())
	assert.False(t, FeeType("bogus").Valid())
}
