package harvest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageURL(t *testing.T) {
	assert.Equal(t, "https://x.test", PageURL("https://x.test", DefaultPageSuffix, 1))
	assert.Equal(t, "https://x.test/", PageURL("https://x.test/", DefaultPageSuffix, 1))
	assert.Equal(t, "https://x.test/quran/page:2", PageURL("https://x.test", DefaultPageSuffix, 2))
	assert.Equal(t, "https://x.test/quran/page:3", PageURL("https://x.test/", DefaultPageSuffix, 3))
	assert.Equal(t, "https://x.test/list?p=4", PageURL("https://x.test", "list?p=%d", 4))
	assert.Equal(t, "https://x.test/quran/page:5", PageURL("https://x.test", "", 5))
}
