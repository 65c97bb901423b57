package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsed_ValidSemver(t *testing.T) {
	tests := []struct {
		version   string
		wantMajor uint64
		wantMinor uint64
		wantPatch uint64
	}{
		{"v1.0.0", 1, 0, 0},
		{"v1.2.3", 1, 2, 3},
		{"v1.0.0-rc.2", 1, 0, 0},
		{"1.4.0", 1, 4, 0}, // without v prefix
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			resetParsedVersion()
			Version = tt.version

			v := Parsed()
			assert.NotNil(t, v)
			assert.Equal(t, tt.wantMajor, v.Major())
			assert.Equal(t, tt.wantMinor, v.Minor())
			assert.Equal(t, tt.wantPatch, v.Patch())
			assert.False(t, IsDevBuild())
		})
	}
}

func TestParsed_InvalidVersion(t *testing.T) {
	for _, version := range []string{"dev", "", "v1.0.0.0"} {
		t.Run(version, func(t *testing.T) {
			resetParsedVersion()
			Version = version

			assert.Nil(t, Parsed())
			assert.True(t, IsDevBuild())
		})
	}
}

func TestUserAgent(t *testing.T) {
	defer func() {
		resetParsedVersion()
		Version = "dev"
	}()

	resetParsedVersion()
	Version = "dev"
	assert.Equal(t, "ops@example.com eveuniverse/dev", UserAgent("ops@example.com"))

	resetParsedVersion()
	Version = "v0.3.1"
	assert.Equal(t, "ops@example.com eveuniverse/0.3.1", UserAgent("ops@example.com"))
}

func TestCurrent(t *testing.T) {
	defer func() {
		resetParsedVersion()
		Version, Commit = "dev", "unknown"
	}()

	resetParsedVersion()
	Version, Commit = "v1.2.0", "0123456789abcdef"
	b := Current()
	assert.Equal(t, "v1.2.0", b.Version)
	assert.Equal(t, "0123456", b.Commit)
	assert.NotEmpty(t, b.GoVersion)
	assert.False(t, b.DevBuild)

	resetParsedVersion()
	Version, Commit = "dev", "abc"
	b = Current()
	assert.Equal(t, "abc", b.Commit)
	assert.True(t, b.DevBuild)
}
