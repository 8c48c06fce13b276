package alignment

import (
	"fmt"

	"github.com/GrainArc/EarthWork/errkind"
)

// MalformedAlignmentError 线形或纵断面数据不合法（不连续、长度非正、里程不递增等）
type MalformedAlignmentError struct {
	Component string // horizontal / profile / superelevation
	Index     int
	Reason    string
}

func (e *MalformedAlignmentError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("malformed %s at element %d: %s", e.Component, e.Index, e.Reason)
	}
	return fmt.Sprintf("malformed %s: %s", e.Component, e.Reason)
}

func (e *MalformedAlignmentError) Unwrap() error { return errkind.Input }

// StationOutOfRangeError 查询里程不在 [0, Length] 内
type StationOutOfRangeError struct {
	Station float64
	Length  float64
}

func (e *StationOutOfRangeError) Error() string {
	return fmt.Sprintf("station %.4f is outside alignment range [0, %.4f]", e.Station, e.Length)
}

func (e *StationOutOfRangeError) Unwrap() error { return errkind.Domain }

func malformed(component string, index int, format string, args ...interface{}) error {
	return &MalformedAlignmentError{Component: component, Index: index, Reason: fmt.Sprintf(format, args...)}
}
