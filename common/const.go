package common

const (
	// UserConfigDirectory is the dirname of the directory holding the user
	// configuration for relist.
	UserConfigDirectory = ".relist"

	// DefaultConfigFile is the name of the configuration file inside the
	// UserConfigDirectory.
	DefaultConfigFile = "config.toml"

	// DefaultCapacity is the size in bytes of images created without an
	// explicit capacity.
	DefaultCapacity = 1 << 20

	// DefaultLogLevel is used when neither flags nor config set one.
	DefaultLogLevel = "info"

	// DefaultListenAddress is where relist serve listens when neither flags
	// nor config set an address.
	DefaultListenAddress = "localhost:26735"
)
