package ics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSafeURL_AllowsPublicHTTPS(t *testing.T) {
	assert.True(t, IsSafeURL("https://calendar.example.com/team.ics"))
	assert.True(t, IsSafeURL("https://example.com/feed.ics?token=abc"))
	assert.True(t, IsSafeURL("https://93.184.216.34/feed.ics"))
}

func TestIsSafeURL_RejectsNonHTTPS(t *testing.T) {
	assert.False(t, IsSafeURL("http://calendar.example.com/team.ics"))
	assert.False(t, IsSafeURL("ftp://example.com/feed.ics"))
	assert.False(t, IsSafeURL("file:///etc/passwd"))
}

func TestIsSafeURL_RejectsLoopback(t *testing.T) {
	assert.False(t, IsSafeURL("https://localhost/feed.ics"))
	assert.False(t, IsSafeURL("https://foo.localhost/feed.ics"))
	assert.False(t, IsSafeURL("https://127.0.0.1/feed.ics"))
	assert.False(t, IsSafeURL("https://127.8.9.10/feed.ics"))
	assert.False(t, IsSafeURL("https://[::1]/feed.ics"))
}

func TestIsSafeURL_RejectsPrivateRanges(t *testing.T) {
	for _, u := range []string{
		"https://10.0.0.5/feed.ics",
		"https://172.16.0.1/feed.ics",
		"https://172.31.255.254/feed.ics",
		"https://192.168.1.20/feed.ics",
		"https://169.254.169.254/feed.ics",
		"https://0.0.0.0/feed.ics",
		"https://0.1.2.3/feed.ics",
		"https://[fd00::1]/feed.ics",
		"https://[fe80::1]/feed.ics",
	} {
		assert.False(t, IsSafeURL(u), "expected %s to be blocked", u)
	}
}

func TestIsSafeURL_RejectsMalformed(t *testing.T) {
	assert.False(t, IsSafeURL(""))
	assert.False(t, IsSafeURL("://nonsense"))
	assert.False(t, IsSafeURL("https://"))
	assert.False(t, IsSafeURL("not a url at all"))
}
