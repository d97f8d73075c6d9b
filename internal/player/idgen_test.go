package player

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var idPattern = regexp.MustCompile(`^[a-z]{5}[0-9]{5}$`)

func TestNewIDShape(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		id, err := NewID()
		require.NoError(t, err)
		assert.Regexp(t, idPattern, id)
		seen[id] = struct{}{}
	}
	// 26^5 * 10^5 ids; a collision in 200 draws means the source is broken
	assert.Len(t, seen, 200)
}

func TestReferralCodeFor(t *testing.T) {
	assert.Equal(t, "REF-abcde12345", ReferralCodeFor("abcde12345"))
}
