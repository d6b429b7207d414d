package checkout

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrEmptyBag = errors.New("bag is empty, nothing to check out")
	// ErrProductVanished means a product in the bag snapshot no longer
	// resolves in the catalog. The order is fully rolled back; nothing
	// partial survives.
	ErrProductVanished = errors.New("product in bag snapshot no longer exists")
)

// ValidationError reports missing or malformed buyer input, field by field,
// so the form can redisplay with per-field messages. No order is created.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		names = append(names, field)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid checkout details: %s", strings.Join(names, ", "))
}
