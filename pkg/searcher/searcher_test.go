package searcher

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/praetorian-inc/seek/pkg/matcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink collects every event it receives.
type recordingSink struct {
	began    bool
	lines    []string
	numbers  []uint64
	offsets  []uint64
	finish   *SinkFinish
	stopAt   int
	matchErr error
}

func (s *recordingSink) Begin() (bool, error) {
	s.began = true
	return true, nil
}

func (s *recordingSink) Matched(m *SinkMatch) (bool, error) {
	if s.matchErr != nil {
		return false, s.matchErr
	}
	s.lines = append(s.lines, string(m.Line()))
	s.numbers = append(s.numbers, m.LineNumber)
	s.offsets = append(s.offsets, m.AbsoluteByteOffset)
	if s.stopAt > 0 && len(s.lines) >= s.stopAt {
		return false, nil
	}
	return true, nil
}

func (s *recordingSink) Finish(f *SinkFinish) error {
	s.finish = f
	return nil
}

func mustRegexp(t *testing.T, pattern string) matcher.Matcher {
	t.Helper()
	re, err := matcher.NewRegexp(pattern, matcher.RegexpConfig{})
	require.NoError(t, err)
	return re
}

const fiveLines = "alpha\nbravo\ncharlie needle\ndelta\necho\n"

func TestSearchReader(t *testing.T) {
	s := New(DefaultConfig())
	sink := &recordingSink{}

	err := s.SearchReader(mustRegexp(t, "needle"), strings.NewReader(fiveLines), sink)
	require.NoError(t, err)

	assert.True(t, sink.began)
	assert.Equal(t, []string{"charlie needle"}, sink.lines)
	assert.Equal(t, []uint64{3}, sink.numbers)
	assert.Equal(t, []uint64{12}, sink.offsets)
	require.NotNil(t, sink.finish)
	assert.Equal(t, uint64(len(fiveLines)), sink.finish.ByteCount)
	assert.Equal(t, int64(-1), sink.finish.BinaryByteOffset)
}

func TestSearchReader_NoTrailingNewline(t *testing.T) {
	s := New(DefaultConfig())
	sink := &recordingSink{}

	err := s.SearchReader(mustRegexp(t, "end$"), strings.NewReader("start\nthe end"), sink)
	require.NoError(t, err)
	assert.Equal(t, []string{"the end"}, sink.lines)
	assert.Equal(t, []uint64{2}, sink.numbers)
}

func TestSearchReader_LongLine(t *testing.T) {
	s := New(DefaultConfig())
	sink := &recordingSink{}
	long := strings.Repeat("x", 3*DefaultBufferSize) + "needle\nshort\n"

	err := s.SearchReader(mustRegexp(t, "needle"), strings.NewReader(long), sink)
	require.NoError(t, err)
	require.Len(t, sink.lines, 1)
	assert.Len(t, sink.lines[0], 3*DefaultBufferSize+len("needle"))
}

func TestSearchReader_LineNumbersDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LineNumber = false
	s := New(cfg)
	sink := &recordingSink{}

	require.NoError(t, s.SearchReader(mustRegexp(t, "needle"), strings.NewReader(fiveLines), sink))
	assert.Equal(t, []uint64{0}, sink.numbers)
}

func TestSearchReader_BinaryQuit(t *testing.T) {
	s := New(DefaultConfig())
	sink := &recordingSink{}
	input := "needle one\nbin\x00ary needle\nneedle two\n"

	require.NoError(t, s.SearchReader(mustRegexp(t, "needle"), strings.NewReader(input), sink))
	assert.Equal(t, []string{"needle one"}, sink.lines)
	require.NotNil(t, sink.finish)
	assert.Equal(t, int64(len("needle one\nbin")), sink.finish.BinaryByteOffset)
}

func TestSearchReader_BinaryNone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BinaryDetection = BinaryNone
	s := New(cfg)
	sink := &recordingSink{}
	input := "needle one\nbin\x00ary needle\nneedle two\n"

	require.NoError(t, s.SearchReader(mustRegexp(t, "needle"), strings.NewReader(input), sink))
	assert.Len(t, sink.lines, 3)
	assert.Equal(t, int64(-1), sink.finish.BinaryByteOffset)
}

func TestSearchReader_SinkStops(t *testing.T) {
	s := New(DefaultConfig())
	sink := &recordingSink{stopAt: 1}

	require.NoError(t, s.SearchReader(mustRegexp(t, "a"), strings.NewReader(fiveLines), sink))
	assert.Equal(t, []string{"alpha"}, sink.lines)
	require.NotNil(t, sink.finish, "finish is reported after an early stop")
	assert.Equal(t, uint64(len("alpha\n")), sink.finish.ByteCount)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device on fire") }

func TestSearchReader_ReadErrorPropagates(t *testing.T) {
	s := New(DefaultConfig())
	sink := &recordingSink{}

	err := s.SearchReader(mustRegexp(t, "x"), io.MultiReader(strings.NewReader("x\n"), failingReader{}), sink)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device on fire")
	assert.Nil(t, sink.finish, "finish is not reported for failed searches")
}

func TestSearchReader_SinkErrorPropagates(t *testing.T) {
	s := New(DefaultConfig())
	sink := &recordingSink{matchErr: errors.New("closed pipe")}

	err := s.SearchReader(mustRegexp(t, "alpha"), strings.NewReader(fiveLines), sink)
	assert.EqualError(t, err, "closed pipe")
}

func TestSearchPath(t *testing.T) {
	tests := []struct {
		name string
		cfg  func() Config
	}{
		{
			name: "buffered",
			cfg: func() Config {
				c := DefaultConfig()
				c.Mmap = MmapNever
				return c
			},
		},
		{
			name: "memory mapped",
			cfg: func() Config {
				c := DefaultConfig()
				c.MmapThreshold = 1
				return c
			},
		},
	}

	path := filepath.Join(t.TempDir(), "five.txt")
	require.NoError(t, os.WriteFile(path, []byte(fiveLines), 0644))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.cfg())
			sink := &recordingSink{}

			require.NoError(t, s.SearchPath(mustRegexp(t, "needle"), path, sink))
			assert.Equal(t, []string{"charlie needle"}, sink.lines)
			assert.Equal(t, []uint64{3}, sink.numbers)
			assert.Equal(t, uint64(len(fiveLines)), sink.finish.ByteCount)
		})
	}
}

func TestSearchPath_Missing(t *testing.T) {
	s := New(DefaultConfig())
	err := s.SearchPath(mustRegexp(t, "x"), filepath.Join(t.TempDir(), "missing"), &recordingSink{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSearchPath_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	cfg := DefaultConfig()
	cfg.MmapThreshold = 1
	s := New(cfg)
	sink := &recordingSink{}

	require.NoError(t, s.SearchPath(mustRegexp(t, "x"), path, sink))
	assert.Empty(t, sink.lines)
	assert.Equal(t, uint64(0), sink.finish.ByteCount)
}

func TestSearcher_ReusedAcrossSearches(t *testing.T) {
	s := New(DefaultConfig())
	m := mustRegexp(t, "needle")

	for i := 0; i < 3; i++ {
		sink := &recordingSink{}
		require.NoError(t, s.SearchReader(m, strings.NewReader(fiveLines), sink))
		assert.Equal(t, []uint64{3}, sink.numbers, "line numbers restart for every search")
	}
}

func TestTrimLineTerminator(t *testing.T) {
	assert.Equal(t, "abc", string(TrimLineTerminator([]byte("abc\n"))))
	assert.Equal(t, "abc", string(TrimLineTerminator([]byte("abc\r\n"))))
	assert.Equal(t, "abc", string(TrimLineTerminator([]byte("abc"))))
	assert.Equal(t, "", string(TrimLineTerminator([]byte("\n"))))
}

func TestParseBinaryDetection(t *testing.T) {
	for in, want := range map[string]BinaryDetection{"": BinaryQuit, "quit": BinaryQuit, "NONE": BinaryNone} {
		got, err := ParseBinaryDetection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseBinaryDetection("text")
	assert.EqualError(t, err, "unknown binary detection: text")
}

func TestParseMmapChoice(t *testing.T) {
	for in, want := range map[string]MmapChoice{"": MmapAuto, "auto": MmapAuto, "Never": MmapNever} {
		got, err := ParseMmapChoice(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMmapChoice("always")
	assert.Error(t, err)
}
