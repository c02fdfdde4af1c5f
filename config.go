package revlines

// Config carries the reader construction options.
type Config struct {
	// BlockSize is the number of bytes loaded from the Source per
	// step. Zero means the default (4096). It is clamped up so that a
	// block always holds at least one whole code unit, and rounded up
	// to a multiple of the unit width for fixed-width encodings.
	BlockSize int

	// Encoding names the character encoding of the input. Empty means
	// UTF-8. See Resolve for the supported set.
	Encoding string

	// Logger receives debug output. Nil means NullLogger.
	Logger Logger
}
