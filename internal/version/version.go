// ABOUTME: Version information for the soundboard
// ABOUTME: Product, manufacturer and release strings shown by the CLI tools
package version

// Version is overridden at build time with -ldflags "-X .../internal/version.Version=..."
var Version = "0.1.0"

const (
	Product      = "Soundboard"
	Manufacturer = "Soundboard Project"
)

// String returns "Product Version"
func String() string {
	return Product + " " + Version
}
