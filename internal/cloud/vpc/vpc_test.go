package vpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAvailableRejectsFrankfurtReservedBlock(t *testing.T) {
	err := CheckAvailable("FRA1", "10.19.0.0/16")
	assert.Error(t, err)
}

func TestCheckAvailableAcceptsSameSubnetInLondon(t *testing.T) {
	err := CheckAvailable("LON1", "10.19.0.0/16")
	assert.NoError(t, err)
}

func TestCheckAvailableRejectsGlobalReservedBlockEverywhere(t *testing.T) {
	assert.Error(t, CheckAvailable("LON1", "10.244.0.0/16"))
	assert.Error(t, CheckAvailable("NYC1", "10.246.0.0/24"))
}

func TestCheckAvailableRejectsPartialOverlap(t *testing.T) {
	err := CheckAvailable("FRA1", "10.19.5.0/24")
	assert.Error(t, err)
}

func TestCheckAvailableAcceptsNonOverlappingSubnet(t *testing.T) {
	err := CheckAvailable("FRA1", "10.100.0.0/16")
	assert.NoError(t, err)
}

func TestCheckAvailableRejectsInvalidCIDR(t *testing.T) {
	err := CheckAvailable("FRA1", "not-a-cidr")
	assert.Error(t, err)
}
