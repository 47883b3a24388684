package graph

import (
	"strconv"
	"strings"
)

// Id is the opaque identity of a vertex or edge.
// Negative integer ids are placeholders for elements
// not yet confirmed by a persistence collaborator.
type Id string

func LocalId(n int64) Id {
	if n > 0 {
		n = -n
	}
	return Id(strconv.FormatInt(n, 10))
}

// IsLocal reports whether the id is a local placeholder.
func (id Id) IsLocal() bool {
	if !strings.HasPrefix(string(id), "-") {
		return false
	}
	n, err := strconv.ParseInt(string(id), 10, 64)
	return err == nil && n < 0
}

func (id Id) String() string {
	return string(id)
}

func CompareId(a, b Id) int {
	return strings.Compare(string(a), string(b))
}

// ParseIds splits a comma separated id list.
func ParseIds(s string) []Id {
	var r []Id
	for _, e := range strings.Split(s, ",") {
		e = strings.TrimSpace(e)
		if e != "" {
			r = append(r, Id(e))
		}
	}
	return r
}

// JoinIds provides a comma separated id list.
func JoinIds(ids []Id) string {
	r := make([]string, len(ids))
	for i, id := range ids {
		r[i] = string(id)
	}
	return strings.Join(r, ", ")
}
