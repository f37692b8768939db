package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLetterOrUnderscoreOrNumber(t *testing.T) {
	for _, b := range []byte("azAZ_09") {
		assert.True(t, IsLetterOrUnderscoreOrNumber(b), string(b))
	}
	for _, b := range []byte(" .-{\"") {
		assert.False(t, IsLetterOrUnderscoreOrNumber(b), string(b))
	}
	assert.False(t, IsLetterOrUnderscore('7'))
}

func TestUnescapeString(t *testing.T) {
	testDatas := []struct {
		data      string
		expect    string
		expectErr bool
	}{
		{data: "hello", expect: "hello"},
		{data: `a\nb`, expect: "a\nb"},
		{data: `say \"hi\"`, expect: `say "hi"`},
		{data: `c:\\dir`, expect: `c:\dir`},
		{data: `bad\q`, expectErr: true},
		{data: `trailing\`, expectErr: true},
	}
	for _, data := range testDatas {
		ret, err := UnescapeString(data.data)
		if data.expectErr {
			assert.NotNil(t, err, data.data)
			continue
		}
		assert.Nil(t, err, data.data)
		assert.Equal(t, data.expect, ret)
	}
}

func TestEscapeString(t *testing.T) {
	assert.Equal(t, `""`, EscapeString(""))
	assert.Equal(t, `"hi"`, EscapeString("hi"))
	assert.Equal(t, `"a\"b\\c\n"`, EscapeString("a\"b\\c\n"))
}
