package api

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// queryInt reads an integer query parameter within [min, max]. Missing
// parameters yield def. On failure it writes a validation error and
// returns false.
func queryInt(c *gin.Context, name string, def, min, max int) (int, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		RespondValidationError(c, "invalid query parameter", []ErrorDetail{
			{Field: name, Message: "must be an integer"},
		})
		return 0, false
	}
	if v < min || v > max {
		RespondValidationError(c, "invalid query parameter", []ErrorDetail{
			{Field: name, Message: fmt.Sprintf("must be between %d and %d", min, max)},
		})
		return 0, false
	}
	return v, true
}

// queryBool reads a boolean query parameter, defaulting to def.
func queryBool(c *gin.Context, name string, def bool) (bool, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		RespondValidationError(c, "invalid query parameter", []ErrorDetail{
			{Field: name, Message: "must be a boolean"},
		})
		return false, false
	}
	return v, true
}
