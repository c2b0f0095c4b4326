package version

var (
	// Version is overridden at build time via ldflags.
	Version = "0.1.0"

	// Namespace is the prefix of all environment configuration variables.
	Namespace = "GQLGATE"

	// ProjectName is used in the version output.
	ProjectName = "GQLGATE GraphQL Operation Proxy"
)
