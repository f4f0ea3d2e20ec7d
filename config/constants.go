package config

const (
	// dirName is the default data directory name under the user's home.
	dirName = ".forestd"

	// forestFilePrefix is the base filename Forest.Commit writes, and
	// accumulator.NewForest reads, the leaf snapshot under, relative to
	// DataDir.
	forestFilePrefix = "forest.dat"

	// logFilename is the rotated log file's base name, relative to DataDir.
	logFilename = "forestd.log"
)
