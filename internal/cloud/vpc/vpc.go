// Package vpc implements the VPC CIDR auto-detection reserved-subnet
// table (SPEC_FULL.md §5, E2E scenario 4): some regions have a /16 (or,
// for the shared Kubernetes service range, a /24) DigitalOcean reserves
// for its own infrastructure, so a requested subnet colliding with one
// must be rejected before any terraform run, grounded on
// original_source/src/cloud_provider/digitalocean/kubernetes/cidr.rs.
package vpc

import (
	"fmt"
	"net/netip"
)

// reservedCIDRPerRegion mirrors the source's forbidden_cidr table
// (https://www.digitalocean.com/docs/networking/vpc/). "ALL" entries
// apply to every region regardless of the lookup key.
var reservedCIDRPerRegion = map[string][]string{
	"AMS1": {"10.11.0.0/16"},
	"AMS2": {"10.14.0.0/16"},
	"AMS3": {"10.18.0.0/16"},
	"BLR1": {"10.47.0.0/16"},
	"FRA1": {"10.19.0.0/16"},
	"LON1": {"10.16.0.0/16"},
	"NYC1": {"10.10.0.0/16"},
	"NYC2": {"10.13.0.0/16"},
	"NYC3": {"10.17.0.0/16"},
	"SFO1": {"10.12.0.0/16"},
	"SFO2": {"10.46.0.0/16"},
	"SFO3": {"10.48.0.0/16"},
	"SGP1": {"10.15.0.0/16"},
	"TOR1": {"10.20.0.0/16"},
}

// reservedEverywhere applies regardless of region.
var reservedEverywhere = []string{
	"10.244.0.0/16",
	"10.245.0.0/16",
	"10.246.0.0/24",
}

// CheckAvailable returns an error if requested overlaps a region-reserved
// block or one of the always-reserved blocks, per E2E scenario 4:
// 10.19.0.0/16 in Frankfurt (FRA1) is rejected, the same subnet in London
// (LON1) is accepted.
func CheckAvailable(region, requestedCIDR string) error {
	requested, err := netip.ParsePrefix(requestedCIDR)
	if err != nil {
		return fmt.Errorf("invalid cidr %q: %w", requestedCIDR, err)
	}
	requested = requested.Masked()

	for _, blocked := range reservedEverywhere {
		if overlaps(requested, blocked) {
			return fmt.Errorf("cidr %q collides with a reserved block (%s) used on every region", requestedCIDR, blocked)
		}
	}
	for _, blocked := range reservedCIDRPerRegion[region] {
		if overlaps(requested, blocked) {
			return fmt.Errorf("cidr %q collides with the reserved block (%s) of region %q", requestedCIDR, blocked, region)
		}
	}
	return nil
}

func overlaps(requested netip.Prefix, blockedCIDR string) bool {
	blocked, err := netip.ParsePrefix(blockedCIDR)
	if err != nil {
		return false
	}
	blocked = blocked.Masked()
	return blocked.Overlaps(requested)
}
