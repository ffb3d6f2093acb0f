package store

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// NodeName is the type name encoded in dataset global ids.
const NodeName = "Dataset"

// ErrInvalidCursor is returned for cursors that do not decode to a
// dataset global id.
var ErrInvalidCursor = errors.New("invalid cursor format")

// GlobalID encodes a dataset row id as base64("Dataset:<id>").
func GlobalID(id int64) string {
	return base64.StdEncoding.EncodeToString([]byte(NodeName + ":" + strconv.FormatInt(id, 10)))
}

// ParseGlobalID decodes a global id produced by GlobalID.
func ParseGlobalID(gid string) (int64, error) {
	raw, err := base64.StdEncoding.DecodeString(gid)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCursor, gid)
	}
	typeName, node, ok := strings.Cut(string(raw), ":")
	if !ok || typeName != NodeName {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCursor, gid)
	}
	id, err := strconv.ParseInt(node, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCursor, gid)
	}
	return id, nil
}
