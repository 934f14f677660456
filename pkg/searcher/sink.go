package searcher

// SinkMatch describes one matching line.
type SinkMatch struct {
	// LineNumber is the 1-based line number, or 0 when line counting is off.
	LineNumber uint64

	// AbsoluteByteOffset is the offset of the start of the line.
	AbsoluteByteOffset uint64

	// Bytes is the line including its terminator. It is only valid for the
	// duration of the Matched call.
	Bytes []byte
}

// Line returns the matched line without its terminator.
func (m *SinkMatch) Line() []byte {
	return TrimLineTerminator(m.Bytes)
}

// SinkFinish is reported once a search completes.
type SinkFinish struct {
	// ByteCount is the number of bytes searched.
	ByteCount uint64

	// BinaryByteOffset is the offset of the first NUL byte when the search
	// quit on binary data, or -1.
	BinaryByteOffset int64
}

// Sink receives search events from a Searcher.
type Sink interface {
	// Begin is called before any data is searched. Returning false skips
	// the search entirely.
	Begin() (bool, error)

	// Matched is called for every matching line. Returning false stops the
	// search; Finish is still called.
	Matched(m *SinkMatch) (bool, error)

	// Finish is called after a search that did not fail.
	Finish(f *SinkFinish) error
}
