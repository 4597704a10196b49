// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Tidewave is the canonical application identifier used for filesystem paths and CLI branding.
	Tidewave = "tidewave"

	// Version is the current application semantic version string.
	Version = "0.1.0"
)

// Build metadata, overridable via -ldflags at release time.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)

// Service endpoints.
const (
	// APIBase is the root of the streaming service REST API.
	APIBase = "https://api.tidal.com/v1/"

	// AuthBase is the root of the OAuth2 authorization service.
	AuthBase = "https://auth.tidal.com/v1/oauth2/"

	// LoginBase is the legacy username/password login endpoint root.
	LoginBase = APIBase + "login/"

	// ResourcesBase serves static assets such as album artwork.
	ResourcesBase = "https://resources.tidal.com/images/"
)

// Device client identifiers. The remote enforces the token/User-Agent pairing
// per device type, so these must be sent exactly as registered.
const (
	ClientTokenDesktop = "4zx46pyr9o8qZNRw"
	ClientTokenMobile  = "kgsOOmYk3zShYrNP"

	ClientIDTV     = "aR7gUaTK1ihpXOEP"
	ClientSecretTV = "eVWBEkuL2FCjxgjOkR3yK0RYZEbcrMXRc2l8fU3ZCdE="

	ClientIDWeb = "CzET4vdadNUFQ5JU"

	ClientVersion = "2.26.1"
)

// User-Agent strings per device type.
const (
	UserAgentDesktop = "TIDAL_NATIVE_PLAYER/" + ClientVersion
	UserAgentMobile  = "TIDAL_ANDROID/1039 okhttp/3.14.9"
	UserAgentTV      = "TIDAL_TV/" + ClientVersion
	UserAgentWeb     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// AuthScopes is the OAuth scope set requested by the device-code and web flows.
const AuthScopes = "r_usr w_usr"
