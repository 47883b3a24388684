package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/gowebpki/jcs"
	"github.com/modern-go/reflect2"
)

// HashData provides a sha256 digest of the canonical
// JSON representation (RFC 8785) of the given data.
// Byte slices and strings are hashed as they are.
func HashData(d interface{}) (string, error) {
	if reflect2.IsNil(d) {
		return "", nil
	}
	var err error
	var data []byte
	switch b := d.(type) {
	case []byte:
		data = b
	case string:
		data = []byte(b)
	default:
		data, err = json.Marshal(d)
		if err != nil {
			return "", err
		}
		data, err = jcs.Transform(data)
		if err != nil {
			return "", err
		}
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:]), nil
}
