package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/berfenger/taspromto/internal/core/domain"
)

// DecodeDsmr parses the bare number published on a dsmr feed topic.
func DecodeDsmr(field domain.DsmrField, payload []byte) (domain.DsmrUpdate, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 32)
	if err != nil {
		return domain.DsmrUpdate{}, fmt.Errorf("%w: %s: %s", ErrInvalidPayload, field, err)
	}
	return domain.DsmrUpdate{Field: field, Value: float32(v)}, nil
}
