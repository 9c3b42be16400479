package event

import (
	"encoding/base64"
	"encoding/json"
	"sort"
	"strconv"
)

// NormalizeMediaKey turns the gateway's media decryption key into a
// base64 string. The key arrives in one of three shapes depending on the
// gateway version: already a base64 string, a JSON byte array, or a
// byte-array-like object ({"0":12,"1":255,...}) that must be reassembled
// in index order.
func NormalizeMediaKey(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var arr []int
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) > 0 {
		buf := make([]byte, len(arr))
		for i, v := range arr {
			buf[i] = byte(v)
		}
		return base64.StdEncoding.EncodeToString(buf)
	}

	var obj map[string]int
	if err := json.Unmarshal(raw, &obj); err == nil && len(obj) > 0 {
		idx := make([]int, 0, len(obj))
		for k := range obj {
			i, err := strconv.Atoi(k)
			if err != nil {
				return ""
			}
			idx = append(idx, i)
		}
		sort.Ints(idx)
		buf := make([]byte, 0, len(idx))
		for _, i := range idx {
			buf = append(buf, byte(obj[strconv.Itoa(i)]))
		}
		return base64.StdEncoding.EncodeToString(buf)
	}

	return ""
}
