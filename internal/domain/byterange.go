package domain

import "fmt"

// ByteRange is an inclusive window [Start, End] into a file of Total bytes.
type ByteRange struct {
	Start int64
	End   int64
	Total int64
}

// Length returns the number of bytes covered by the range.
func (r ByteRange) Length() int64 {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// ContentRange formats the range as a Content-Range header value.
func (r ByteRange) ContentRange() string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, r.Total)
}

// Valid reports whether 0 <= Start <= End <= Total-1.
func (r ByteRange) Valid() bool {
	return r.Start >= 0 && r.Start <= r.End && r.End <= r.Total-1
}
