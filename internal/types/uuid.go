package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/teris-io/shortid"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex inv_01HV3K8Z5M7Q2W9XRT4B6N1CJD
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

var (
	sidGenerator *shortid.Shortid
	once         sync.Once
)

func initializeSID() {
	var err error
	sidGenerator, err = shortid.New(1, shortid.DefaultABC, 2342)
	if err != nil {
		panic("failed to initialize shortid generator: " + err.Error())
	}
}

// GenerateShortIDWithPrefix returns an upper-cased short ID with a prefix.
// Total length is capped at 12 characters, e.g. `FV-XYZ12A8Q`, and the
// random part never drops below 8 characters.
func GenerateShortIDWithPrefix(prefix string) string {
	once.Do(initializeSID)
	return shortIDWithPrefix(prefix, sidGenerator.Generate)
}

// shortIDWithPrefix falls back to the random tail of a ULID when the
// generator fails so the result is never just the prefix
func shortIDWithPrefix(prefix string, generate func() (string, error)) string {
	id, err := generate()
	id = strings.NewReplacer("-", "", "_", "").Replace(id)
	if err != nil || id == "" {
		id = ulidTail(shortIDFallbackLen)
	}

	availableLen := shortIDMaxLen - len(prefix)
	if availableLen < shortIDFallbackLen {
		availableLen = shortIDFallbackLen
	}
	if len(id) > availableLen {
		id = id[:availableLen]
	}

	return strings.ToUpper(prefix + id)
}

// ulidTail returns the last n characters of a fresh ULID, which are random
func ulidTail(n int) string {
	id := GenerateUUID()
	return id[len(id)-n:]
}

const (
	shortIDMaxLen      = 12
	shortIDFallbackLen = 8
)

const (
	UUID_PREFIX_INVOICE      = "inv"
	UUID_PREFIX_INVOICE_ITEM = "inv_item"
	UUID_PREFIX_USER         = "user"
	UUID_PREFIX_CUSTOMER     = "cust"
	UUID_PREFIX_PRODUCT      = "prod"
)

const (
	SHORT_ID_PREFIX_INVOICE = "FV-"
)
