package podio

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTakeRead(t *testing.T) {
	tk := NewTake(newOnlyReader("hello"), 4)

	b, err := io.ReadAll(tk)
	require.NoError(t, err)
	assert.Equal(t, "hell", string(b))
	assert.Zero(t, tk.Remaining())

	n, err := tk.Read(make([]byte, 1))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)

	moved, err := tk.SeekForward(3)
	require.NoError(t, err)
	assert.Zero(t, moved)
}

func TestTakeDecrementsByActualAmount(t *testing.T) {
	tk := NewTake(&interruptingReader{r: bytes.NewReader(digits(10))}, 7)

	b := make([]byte, 7)
	require.NoError(t, ReadExact(tk, b))
	assert.Equal(t, "0123456", string(b))
	assert.Zero(t, tk.Remaining())
}

func TestTakeWrite(t *testing.T) {
	w := NewBytesWriter(make([]byte, 8))
	tk := NewTake(w, 3)

	n, err := tk.Write([]byte("abcd"))
	assert.Equal(t, 3, n)
	assert.ErrorIs(t, err, io.ErrShortWrite)

	n, err = tk.Write([]byte("x"))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.ErrShortWrite)

	n, err = tk.Write(nil)
	assert.Zero(t, n)
	assert.NoError(t, err)

	assert.Equal(t, "abc", string(w.Bytes()))
}

func TestTakeSeekForward(t *testing.T) {
	r := bytes.NewReader(digits(10))
	tk := NewTake(r, 4)
	assert.Equal(t, CanTell|CanSeekForward, tk.Capabilities())

	moved, err := tk.SeekForward(10)
	require.NoError(t, err)
	assert.EqualValues(t, 4, moved)
	assert.Zero(t, tk.Remaining())

	pos, err := tk.Tell()
	require.NoError(t, err)
	assert.EqualValues(t, 4, pos)

	_, err = tk.Seek(-1, io.SeekCurrent)
	assert.ErrorIs(t, err, ErrUnsupportedSeek)
}

func TestTakeForwardOnlyInner(t *testing.T) {
	tk := NewTake(NewReadForward(newOnlyReader("abcdef")), 4)
	moved, err := tk.SeekForward(2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, moved)
	assert.EqualValues(t, 2, tk.Remaining())

	var out bytes.Buffer
	n, err := tk.WriteTo(&out)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, "cd", out.String())
}
