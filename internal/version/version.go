// ABOUTME: Version constants for the woodshed tools
// ABOUTME: Single source of truth for product identification
package version

const (
	// Version is the release version of this build.
	Version = "0.1.0"

	// Product is the product name reported to monitors.
	Product = "Woodshed"

	// Manufacturer identifies the project.
	Manufacturer = "Woodshed Audio"
)
