// Package stream serves stored video files with HTTP byte-range semantics.
package stream

import (
	"strconv"
	"strings"

	"github.com/iconidentify/newsreel/internal/domain"
)

// Default streaming limits.
const (
	// MaxChunkSize bounds a single ranged response.
	MaxChunkSize int64 = 10 << 20
	// FullBodyThreshold is the largest file served whole without a Range header.
	FullBodyThreshold int64 = 50 << 20
	// DefaultChunkSize is served for larger files requested without a Range header.
	DefaultChunkSize int64 = 2 << 20
)

// Policy holds the size limits applied when planning a response.
type Policy struct {
	MaxChunk          int64
	FullBodyThreshold int64
	DefaultChunk      int64
}

// DefaultPolicy returns the standard limits.
func DefaultPolicy() Policy {
	return Policy{
		MaxChunk:          MaxChunkSize,
		FullBodyThreshold: FullBodyThreshold,
		DefaultChunk:      DefaultChunkSize,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxChunk <= 0 {
		p.MaxChunk = MaxChunkSize
	}
	if p.FullBodyThreshold <= 0 {
		p.FullBodyThreshold = FullBodyThreshold
	}
	if p.DefaultChunk <= 0 {
		p.DefaultChunk = DefaultChunkSize
	}
	return p
}

// Window is the planned response: the bytes to send and whether the
// response is partial (206) or complete (200).
type Window struct {
	Range   domain.ByteRange
	Partial bool
}

// Plan resolves a raw Range header against a file of the given size.
// It returns *domain.RangeError when the range cannot be satisfied.
func Plan(header string, size int64, p Policy) (Window, error) {
	p = p.withDefaults()

	if strings.TrimSpace(header) == "" {
		if size <= p.FullBodyThreshold {
			return Window{Range: domain.ByteRange{Start: 0, End: size - 1, Total: size}}, nil
		}
		end := min(p.DefaultChunk, size) - 1
		return Window{
			Range:   domain.ByteRange{Start: 0, End: end, Total: size},
			Partial: true,
		}, nil
	}

	startStr, endStr := splitRange(header)

	start, ok := parseBound(startStr)
	if !ok {
		start = 0
	}
	end, ok := parseBound(endStr)
	if !ok || end >= size {
		end = size - 1
	}

	if start >= size || start > end {
		return Window{}, &domain.RangeError{Range: header, Size: size}
	}

	if end-start+1 > p.MaxChunk {
		end = start + p.MaxChunk - 1
	}

	return Window{
		Range:   domain.ByteRange{Start: start, End: end, Total: size},
		Partial: true,
	}, nil
}

// splitRange extracts the two bounds of the first range in a
// "bytes=<start>-<end>" header. Only the first of several ranges is honored.
func splitRange(header string) (string, string) {
	spec := strings.TrimSpace(header)
	if len(spec) >= 6 && strings.EqualFold(spec[:6], "bytes=") {
		spec = spec[6:]
	}
	if i := strings.IndexByte(spec, ','); i >= 0 {
		spec = spec[:i]
	}
	startStr, endStr, _ := strings.Cut(spec, "-")
	return strings.TrimSpace(startStr), strings.TrimSpace(endStr)
}

func parseBound(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
