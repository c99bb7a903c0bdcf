package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Advanced Go Patterns", "advanced-go-patterns"},
		{"  Hello,  World!  ", "hello-world"},
		{"Go 1.24: What's New?", "go-1-24-what-s-new"},
		{"already-a-slug", "already-a-slug"},
		{"---", ""},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.title), "title %q", tc.title)
	}
}

func TestViewSession_SeenAndMark(t *testing.T) {
	session := NewViewSession("course_1")

	assert.True(t, session.Seen("course_1"))
	assert.False(t, session.Seen("course_2"))

	session.Mark("course_2")
	assert.True(t, session.Seen("course_2"))

	// IDs 输出有序，方便稳定地写回 cookie
	assert.Equal(t, []string{"course_1", "course_2"}, session.IDs())
}

func TestViewSession_IgnoresEmptyIDs(t *testing.T) {
	session := NewViewSession("", "course_1", "")
	assert.Equal(t, []string{"course_1"}, session.IDs())
}
