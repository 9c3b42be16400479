package handler

import (
	"encoding/json"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxBodyBytes = 10 << 20

// parseLeadBody turns the request body into a flat-ish key/value map,
// branching on Content-Type. Form builders are inconsistent about how
// they post, so an unspecified or unknown content type gets a
// best-effort JSON-then-querystring treatment. Parsing never fails the
// request: an unreadable body simply yields an empty map, which the
// validation stage rejects in-band.
func parseLeadBody(c *gin.Context) map[string]any {
	switch c.ContentType() {
	case "application/json":
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
		if err != nil {
			return map[string]any{}
		}
		return parseJSONObject(raw)

	case "multipart/form-data":
		if err := c.Request.ParseMultipartForm(maxBodyBytes); err != nil {
			return map[string]any{}
		}
		return formToMap(c.Request.MultipartForm.Value)

	case "application/x-www-form-urlencoded":
		if err := c.Request.ParseForm(); err != nil {
			return map[string]any{}
		}
		return formToMap(c.Request.PostForm)

	default:
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
		if err != nil {
			return map[string]any{}
		}
		if m := parseJSONObject(raw); len(m) > 0 {
			return m
		}
		if values, err := url.ParseQuery(strings.TrimSpace(string(raw))); err == nil {
			return formToMap(values)
		}
		return map[string]any{}
	}
}

func parseJSONObject(raw []byte) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{}
	}
	return m
}

func formToMap(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			out[key] = vals[0]
		}
	}
	return out
}

// queryID reads an optional numeric routing query parameter. Non-numeric
// values degrade to absent rather than erroring.
func queryID(c *gin.Context, name string) *int64 {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == 0 {
		return nil
	}
	return &id
}
