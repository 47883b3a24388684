package utils

import (
	"fmt"
	"time"

	v1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

type _time = v1.Time

// Timestamp is time rounded to seconds.
type Timestamp struct {
	_time `json:",inline"`
}

func NewTimestamp() Timestamp {
	return NewTimestampFor(time.Now())
}

func NewTimestampFor(t time.Time) Timestamp {
	return Timestamp{
		_time: v1.NewTime(t.UTC().Round(time.Second)),
	}
}

// MarshalJSON implements the json.Marshaler interface.
// The time is a quoted string in RFC 3339 format.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if y := t.Year(); y < 0 || y >= 10000 {
		return nil, fmt.Errorf("Time.MarshalJSON: year outside of range [0,9999]")
	}

	b := make([]byte, 0, len(time.RFC3339)+2)
	b = append(b, '"')
	b = t.AppendFormat(b, time.RFC3339)
	b = append(b, '"')
	return b, nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	tt, err := time.Parse(`"`+time.RFC3339+`"`, string(data))
	*t = NewTimestampFor(tt)
	return err
}

func (t Timestamp) String() string {
	return t.Format(time.RFC3339)
}

func (t *Timestamp) Time() time.Time {
	return t._time.Time
}
