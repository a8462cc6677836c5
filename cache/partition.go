package cache

import "strings"

// Logical partition names. Physical storage names embed the deployment
// generation so two generations never share storage.
const (
	PartitionStatic  = "static"
	PartitionDynamic = "dynamic"
	PartitionAPI     = "api"
)

// LogicalPartitions lists every logical partition the worker may use.
var LogicalPartitions = []string{PartitionStatic, PartitionDynamic, PartitionAPI}

const generationSeparator = "-"

// PhysicalName returns the storage name for a logical partition under the
// given generation tag, e.g. "api-v42".
func PhysicalName(logical, generation string) string {
	return logical + generationSeparator + generation
}

// IsPartitionOf reports whether the physical name belongs to the given
// logical partition, regardless of generation.
func IsPartitionOf(physical, logical string) bool {
	return strings.HasPrefix(physical, logical+generationSeparator)
}

// IsAnyPartition reports whether the physical name belongs to any of the
// worker's logical partitions. Storage may be shared with other tenants,
// whose partitions must never be touched.
func IsAnyPartition(physical string) bool {
	for _, logical := range LogicalPartitions {
		if IsPartitionOf(physical, logical) {
			return true
		}
	}
	return false
}
