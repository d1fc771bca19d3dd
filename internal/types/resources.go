package types

import (
	"fmt"
	"strconv"
	"strings"
)

// MilliCpu, MebiByte and GibiByte are the semantic resource units chart
// descriptors express their profiles in (spec §4.2).
type MilliCpu int64
type MebiByte int64
type GibiByte int64

// ConvertK8sCPUValueToF32 parses a Kubernetes CPU quantity string ("250m",
// "2", "1500m") into its float core count. Malformed input returns an
// error, matching spec §8's testable property.
func ConvertK8sCPUValueToF32(value string) (float32, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty cpu value")
	}
	if strings.HasSuffix(value, "m") {
		milli, err := strconv.ParseFloat(strings.TrimSuffix(value, "m"), 32)
		if err != nil {
			return 0, fmt.Errorf("malformed millicpu value %q: %w", value, err)
		}
		return float32(milli) / 1000.0, nil
	}
	cores, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return 0, fmt.Errorf("malformed cpu value %q: %w", value, err)
	}
	return float32(cores), nil
}

// CPULimits pairs a resource request with its limit, both as Kubernetes
// CPU quantity strings.
type CPULimits struct {
	Request string
	Limit   string
}

// ValidateK8sRequiredCPUAndBurstable normalises req/limit so that limit is
// never lower than request: if the caller-supplied limit parses below the
// request, the request value is used for the limit instead (spec §8).
func ValidateK8sRequiredCPUAndBurstable(req, limit string) (CPULimits, error) {
	reqVal, err := ConvertK8sCPUValueToF32(req)
	if err != nil {
		return CPULimits{}, fmt.Errorf("invalid cpu request: %w", err)
	}
	limitVal, err := ConvertK8sCPUValueToF32(limit)
	if err != nil {
		return CPULimits{}, fmt.Errorf("invalid cpu limit: %w", err)
	}
	if limitVal < reqVal {
		return CPULimits{Request: req, Limit: req}, nil
	}
	return CPULimits{Request: req, Limit: limit}, nil
}
