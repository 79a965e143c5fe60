package config

const (
	// DefaultDatabasePath is the default path for the on-device store
	DefaultDatabasePath = "./krishi.db"

	// DefaultExportDir is where user data exports are written
	DefaultExportDir = "./exports"

	// MinEncryptionIterations is the PBKDF2 floor enforced by the crypto package
	MinEncryptionIterations = 100_000
)
