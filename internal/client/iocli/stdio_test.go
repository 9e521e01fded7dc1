package iocli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Проверяем что NewStdio возвращает валидный объект
func TestNewStdio(t *testing.T) {
	stdio := NewStdio()
	assert.NotNil(t, stdio)
}

func TestStreams_Output(t *testing.T) {
	var out bytes.Buffer
	s := NewStreams(strings.NewReader(""), &out)

	s.Println("hello", "world")
	s.Printf("test %d %s\n", 1, "abc")
	_, err := s.Write([]byte("raw"))
	require.NoError(t, err)

	assert.Equal(t, "hello world\ntest 1 abc\nraw", out.String())
}

func TestStreams_ReadInput(t *testing.T) {
	var out bytes.Buffer
	s := NewStreams(strings.NewReader("  first line \nsecond"), &out)

	first, err := s.ReadInput("Prompt: ")
	require.NoError(t, err)
	assert.Equal(t, "first line", first)

	// последняя строка без перевода строки тоже читается
	second, err := s.ReadInput("Prompt: ")
	require.NoError(t, err)
	assert.Equal(t, "second", second)

	_, err = s.ReadInput("Prompt: ")
	assert.Error(t, err)

	assert.Equal(t, "Prompt: Prompt: Prompt: ", out.String())
}

// Без терминала пароль читается как обычная строка
func TestStreams_ReadPasswordNonTerminal(t *testing.T) {
	var out bytes.Buffer
	s := NewStreams(strings.NewReader("secret\n"), &out)

	pw, err := s.ReadPassword("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "secret", pw)
}
