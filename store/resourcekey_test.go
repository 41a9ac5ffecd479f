package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceKey(t *testing.T) {
	assert.Equal(t, "act_section:C-46:en:0", ResourceKey("act_section", "C-46", "en", 0))
	assert.Equal(t, "defined_term:SOR-98-282:fr:3", ResourceKey("defined_term", "SOR-98-282", "fr", 3))
}
