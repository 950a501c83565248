// SPDX-License-Identifier: BSD-3-Clause

package mdns

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNameRoundTrip(t *testing.T) {
	names := []string{
		"local",
		"MyPrinter._http._tcp.local",
		"a.b.c.d.e.f",
		"_services._dns-sd._udp.local",
	}
	for _, name := range names {
		buf := make([]byte, 512)
		next, err := MakeName(buf, 0, name)
		require.NoError(t, err, name)

		var scratch [256]byte
		decoded, after, err := ExtractName(buf, 0, scratch[:])
		require.NoError(t, err, name)
		require.Equal(t, name, string(decoded))
		require.Equal(t, next, after)

		// A name compared against itself is equal regardless of case.
		require.True(t, EqualName(buf, 0, buf, 0))
	}
}

func TestNameTrailingDot(t *testing.T) {
	buf := make([]byte, 64)
	next, err := MakeName(buf, 0, "printer.local.")
	require.NoError(t, err)

	var scratch [256]byte
	decoded, _, err := ExtractName(buf, 0, scratch[:])
	require.NoError(t, err)
	require.Equal(t, "printer.local", string(decoded))
	require.Equal(t, 1+7+1+5+1, next)
}

func TestNameEqualIgnoresCase(t *testing.T) {
	a := make([]byte, 64)
	_, err := MakeName(a, 0, "MyPrinter._HTTP._tcp.LOCAL")
	require.NoError(t, err)

	b := make([]byte, 64)
	_, err = MakeName(b, 0, "myprinter._http._TCP.local")
	require.NoError(t, err)

	require.True(t, EqualName(a, 0, b, 0))

	c := make([]byte, 64)
	_, err = MakeName(c, 0, "other._http._tcp.local")
	require.NoError(t, err)
	require.False(t, EqualName(a, 0, c, 0))
}

func TestNameEqualCompressed(t *testing.T) {
	// Literal "_tcp.local" at offset 0, then "printer" + pointer to it.
	buf := make([]byte, 64)
	base, err := MakeName(buf, 0, "_tcp.local")
	require.NoError(t, err)
	next, err := MakeNameWithRef(buf, base, "printer._tcp.local", 0)
	require.NoError(t, err)
	// "printer" label plus a 2-byte pointer.
	require.Equal(t, base+1+7+2, next)

	plain := make([]byte, 64)
	_, err = MakeName(plain, 0, "Printer._TCP.local")
	require.NoError(t, err)
	require.True(t, EqualName(buf, base, plain, 0))
}

func TestNameMakeValidation(t *testing.T) {
	buf := make([]byte, 512)

	// Label longer than 63 bytes.
	long := make([]byte, 64)
	for i := range long {
		long[i] = 'a'
	}
	_, err := MakeName(buf, 0, string(long)+".local")
	require.ErrorIs(t, err, ErrMalformedName)

	// Empty label.
	_, err = MakeName(buf, 0, "a..b")
	require.ErrorIs(t, err, ErrMalformedName)

	// Encoded form longer than 255 bytes.
	name := ""
	for i := 0; i < 5; i++ {
		name += string(long[:60]) + "."
	}
	_, err = MakeName(buf, 0, name)
	require.ErrorIs(t, err, ErrMalformedName)

	// Destination too small.
	_, err = MakeName(buf[:4], 0, "printer.local")
	require.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestNameForwardPointerFails(t *testing.T) {
	// A pointer at offset 12 referencing offset 14, which points back to
	// offset 12. The forward reference is rejected immediately, not by
	// exhausting the jump bound.
	buf := make([]byte, 16)
	buf[12] = labelPointer
	buf[13] = 14
	buf[14] = labelPointer
	buf[15] = 12

	var scratch [256]byte
	_, _, err := ExtractName(buf, 12, scratch[:])
	require.ErrorIs(t, err, ErrMalformedName)

	pos, err := SkipName(buf, 12)
	require.ErrorIs(t, err, ErrMalformedName)
	require.Equal(t, InvalidPos, pos)
}

func TestNameSelfPointerFails(t *testing.T) {
	buf := make([]byte, 16)
	buf[12] = labelPointer
	buf[13] = 12

	_, err := SkipName(buf, 12)
	require.ErrorIs(t, err, ErrMalformedName)
}

func TestNameTruncated(t *testing.T) {
	// Label length prefix promising more bytes than are present.
	buf := []byte{5, 'a', 'b'}
	var scratch [256]byte
	_, _, err := ExtractName(buf, 0, scratch[:])
	require.ErrorIs(t, err, ErrTruncated)

	// Missing terminator.
	buf = []byte{1, 'a'}
	_, err = SkipName(buf, 0)
	require.ErrorIs(t, err, ErrTruncated)

	// Pointer cut short.
	buf = []byte{labelPointer}
	_, err = SkipName(buf, 0)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestNameScratchTooSmall(t *testing.T) {
	buf := make([]byte, 64)
	next, err := MakeName(buf, 0, "averylongservicename._http._tcp.local")
	require.NoError(t, err)

	var scratch [8]byte
	decoded, after, err := ExtractName(buf, 0, scratch[:])
	require.NoError(t, err)
	require.Empty(t, decoded)
	require.Equal(t, next, after)
}

func TestNameSkipReturnsOriginOffset(t *testing.T) {
	// The offset after a compressed name is the position right after the
	// first pointer, not after the compression target.
	buf := make([]byte, 64)
	base, err := MakeName(buf, 0, "service.local")
	require.NoError(t, err)
	next, err := MakeNameRef(buf, base, 0)
	require.NoError(t, err)
	require.Equal(t, base+2, next)

	after, err := SkipName(buf, base)
	require.NoError(t, err)
	require.Equal(t, base+2, after)

	var scratch [256]byte
	decoded, after, err := ExtractName(buf, base, scratch[:])
	require.NoError(t, err)
	require.Equal(t, "service.local", string(decoded))
	require.Equal(t, base+2, after)
}

func TestNameMakeRefValidation(t *testing.T) {
	buf := make([]byte, 8)
	_, err := MakeNameRef(buf, 0, maxPointerOffset+1)
	require.ErrorIs(t, err, ErrMalformedName)

	_, err = MakeNameRef(buf[:1], 0, 12)
	require.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestNameMakeWithRefNoCommonSuffix(t *testing.T) {
	buf := make([]byte, 64)
	base, err := MakeName(buf, 0, "printer.local")
	require.NoError(t, err)

	// Nothing shared: the name is written literally.
	next, err := MakeNameWithRef(buf, base, "example.com", 0)
	require.NoError(t, err)
	require.Equal(t, base+1+7+1+3+1, next)

	var scratch [256]byte
	decoded, _, err := ExtractName(buf, base, scratch[:])
	require.NoError(t, err)
	require.Equal(t, "example.com", string(decoded))
}

func TestNameMakeWithRefFullMatch(t *testing.T) {
	buf := make([]byte, 64)
	base, err := MakeName(buf, 0, "printer._http._tcp.local")
	require.NoError(t, err)

	next, err := MakeNameWithRef(buf, base, "PRINTER._http._tcp.local", 0)
	require.NoError(t, err)
	// The whole name collapses into one pointer.
	require.Equal(t, base+2, next)

	var scratch [256]byte
	decoded, _, err := ExtractName(buf, base, scratch[:])
	require.NoError(t, err)
	require.Equal(t, "printer._http._tcp.local", string(decoded))
}

func TestNameMakeWithRefSuffix(t *testing.T) {
	buf := make([]byte, 128)
	base, err := MakeName(buf, 0, "myhost.local")
	require.NoError(t, err)

	next, err := MakeNameWithRef(buf, base, "MyService._http._tcp.local", 0)
	require.NoError(t, err)
	// Three literal labels plus a pointer to the "local" suffix.
	require.Equal(t, base+1+9+1+5+1+4+2, next)

	var scratch [256]byte
	decoded, _, err := ExtractName(buf, base, scratch[:])
	require.NoError(t, err)
	require.Equal(t, "MyService._http._tcp.local", string(decoded))
}
