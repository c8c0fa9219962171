package handlers

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillsdna-backend/internal/platform/apierr"
)

func uintParam(c *gin.Context, name string) (uint, error) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apierr.BadRequest("invalid_id", "invalid %s %q", name, raw)
	}
	return uint(id), nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apierr.BadRequest("validation_error", "invalid request body: %v", err)
	}
	return nil
}

// NullableID tells an absent JSON field (Set=false) from an explicit null (Set=true, Value=nil).
type NullableID struct {
	Set   bool
	Value *uint
}

func (n *NullableID) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v uint
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}
