package contracts

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, SummaryFormatVersion, info.SummaryFormat)
}

func TestVersionStrings(t *testing.T) {
	assert.Equal(t, "walkcli v"+Version, GetVersionString())

	full := GetFullVersionString()
	assert.True(t, strings.HasPrefix(full, GetVersionString()))
	assert.Contains(t, full, runtime.GOOS+"/"+runtime.GOARCH)
	assert.False(t, IsPrerelease())
}
