package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750
)

// Configuration locations.
const (
	// ConfigDirName is the directory under $HOME holding the CLI configuration.
	ConfigDirName = ".restkit"

	// ConfigFileName is the configuration file name without extension.
	ConfigFileName = "config"

	// ConfigFileType is the configuration file format.
	ConfigFileType = "yml"

	// EnvPrefix prefixes environment variables read by the CLI.
	EnvPrefix = "RESTKIT"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second
)

// HTTP defaults.
const (
	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "restkit/1.0"

	// DefaultScheme is prepended to base URLs without a scheme.
	DefaultScheme = "https://"

	// ContentTypeJSON is the content type of request bodies.
	ContentTypeJSON = "application/json"
)

// Cache defaults.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// DefaultStaleTime is how long a fetched entry is served before refetching.
	DefaultStaleTime = 5 * time.Minute

	// DefaultCleanupInterval is how often the memory cache drops expired entries.
	DefaultCleanupInterval = "1m"

	// DefaultNATSBucket is the default JetStream key-value bucket.
	DefaultNATSBucket = "restkit-cache"

	// NATSClientName identifies cache connections to the NATS server.
	NATSClientName = "restkit-cache"

	// DefaultRedisNamespace prefixes every Redis key.
	DefaultRedisNamespace = "restkit"

	// RedisScanCount is the SCAN batch hint used for prefix deletion.
	RedisScanCount int64 = 100
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)

// Display constants.
const (
	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2

	// StringTruncationLength is the default length for truncating table cells.
	StringTruncationLength = 80

	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"
)

// Command argument counts.
const (
	// KeyValueParts is the number of parts in a key=value flag.
	KeyValueParts = 2
)
