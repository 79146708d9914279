package callmonitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStream = "28.01.26 09:47:17;RING;0;0301234567;987654;SIP0;\r\n" +
	"\n" +
	"28.01.26 09:47:20;CONNECT;0;10;0301234567;  \n" +
	"caf\xe9;CALL\n" +
	"28.01.26 09:49:02;DISCONNECT;0;102;\n"

var sampleLines = []string{
	"28.01.26 09:47:17;RING;0;0301234567;987654;SIP0;",
	"28.01.26 09:47:20;CONNECT;0;10;0301234567;",
	"caf\uFFFD;CALL",
	"28.01.26 09:49:02;DISCONNECT;0;102;",
}

func TestFramerWholeStream(t *testing.T) {
	var f lineFramer
	assert.Equal(t, sampleLines, f.feed([]byte(sampleStream)))
	assert.NoError(t, f.finish())
}

func TestFramerArbitrarySplits(t *testing.T) {
	data := []byte(sampleStream)

	for i := 0; i <= len(data); i++ {
		for j := i; j <= len(data); j++ {
			var f lineFramer
			var got []string
			got = append(got, f.feed(data[:i])...)
			got = append(got, f.feed(data[i:j])...)
			got = append(got, f.feed(data[j:])...)

			require.Equal(t, sampleLines, got, "split at %d and %d", i, j)
			require.NoError(t, f.finish())
		}
	}
}

func TestFramerByteByByte(t *testing.T) {
	var f lineFramer
	var got []string
	for _, b := range []byte(sampleStream) {
		got = append(got, f.feed([]byte{b})...)
	}
	assert.Equal(t, sampleLines, got)
}

func TestFramerSplitMultibyteRune(t *testing.T) {
	var f lineFramer
	assert.Empty(t, f.feed([]byte{'M', 0xc3}))
	assert.Equal(t, []string{"Mü"}, f.feed([]byte{0xbc, '\n'}))
}

func TestFramerIncompleteFrame(t *testing.T) {
	var f lineFramer
	assert.Equal(t, []string{"first"}, f.feed([]byte("first\nsec")))
	assert.ErrorIs(t, f.finish(), ErrIncompleteFrame)
	assert.NoError(t, f.finish(), "pending bytes are discarded")

	f.feed([]byte("done\n \r"))
	assert.NoError(t, f.finish(), "trailing whitespace is not a frame")
}
