package section

import (
	"testing"

	"github.com/arloliu/appinfo/encoding"
	"github.com/arloliu/appinfo/errs"
	"github.com/arloliu/appinfo/format"
	"github.com/stretchr/testify/require"
)

func TestLayoutFor_MatchesThresholds(t *testing.T) {
	for _, v := range format.SupportedVersions {
		t.Run(v.String(), func(t *testing.T) {
			l, err := LayoutFor(v)
			require.NoError(t, err)

			require.Equal(t, v, l.Version)
			require.Equal(t, v >= format.MinVersionSize, l.HasSize)
			require.Equal(t, v >= format.MinVersionAccessToken, l.HasAccessToken)
			require.Equal(t, v >= format.MinVersionTextSHA1, l.HasTextSHA1)
			require.Equal(t, v >= format.MinVersionChangeNumber, l.HasChangeNumber)
			require.Equal(t, v >= format.MinVersionBinarySHA1, l.HasBinarySHA1)
			require.Equal(t, v.HasStringTable(), l.HasStringTable)
		})
	}
}

func TestLayoutFor_Unsupported(t *testing.T) {
	_, err := LayoutFor(99)
	require.ErrorIs(t, err, errs.ErrIncompatibleVersion)
}

func TestLayout_Sizes(t *testing.T) {
	tests := []struct {
		version  format.Version
		sized    int
		envelope int
	}{
		{format.Version28, 8, 12},
		{format.Version29, 8, 12},
		{format.Version39, 40, 48},
		{format.Version40, 60, 68},
		{format.Version41, 60, 68},
	}

	for _, tt := range tests {
		t.Run(tt.version.String(), func(t *testing.T) {
			l, err := LayoutFor(tt.version)
			require.NoError(t, err)
			require.Equal(t, tt.sized, l.SizedFieldsSize())
			require.Equal(t, tt.envelope, l.EnvelopeSize())
		})
	}
}

func fullAppHeader() AppHeader {
	h := AppHeader{
		AppID:        440,
		Size:         1234,
		InfoState:    2,
		LastUpdated:  1700000000,
		AccessToken:  0x0102030405060708,
		ChangeNumber: 987654,
	}
	for i := range h.TextSHA1 {
		h.TextSHA1[i] = byte(i)
		h.BinarySHA1[i] = byte(0xff - i)
	}

	return h
}

func TestAppHeader_RoundTrip(t *testing.T) {
	for _, v := range format.SupportedVersions {
		t.Run(v.String(), func(t *testing.T) {
			l, err := LayoutFor(v)
			require.NoError(t, err)

			h := fullAppHeader()
			buf := AppendAppHeader(nil, l, &h)
			require.Len(t, buf, l.EnvelopeSize())

			c := encoding.NewCursor(buf)
			got, err := ParseAppHeader(c, l)
			require.NoError(t, err)
			require.Equal(t, len(buf), c.Offset())

			want := h
			if !l.HasSize {
				want.Size = 0
			}
			if !l.HasAccessToken {
				want.AccessToken = 0
			}
			if !l.HasTextSHA1 {
				want.TextSHA1 = [SHA1Size]byte{}
			}
			if !l.HasChangeNumber {
				want.ChangeNumber = 0
			}
			if !l.HasBinarySHA1 {
				want.BinarySHA1 = [SHA1Size]byte{}
			}
			require.Equal(t, want, got)
		})
	}
}

func TestAppHeader_Version28Bytes(t *testing.T) {
	l, err := LayoutFor(format.Version28)
	require.NoError(t, err)

	h := fullAppHeader()
	buf := AppendAppHeader(nil, l, &h)

	require.Equal(t, []byte{
		0xb8, 0x01, 0x00, 0x00, // app id 440
		0x02, 0x00, 0x00, 0x00, // info state
		0x00, 0xf1, 0x53, 0x65, // last updated
	}, buf)
}

func TestParseAppHeader_EndMarker(t *testing.T) {
	l, err := LayoutFor(format.Version40)
	require.NoError(t, err)

	c := encoding.NewCursor([]byte{0, 0, 0, 0, 0xAA})
	h, err := ParseAppHeader(c, l)

	require.NoError(t, err)
	require.Zero(t, h.AppID)
	require.Equal(t, 4, c.Offset())
}

func TestParseAppHeader_Truncated(t *testing.T) {
	l, err := LayoutFor(format.Version40)
	require.NoError(t, err)

	h := fullAppHeader()
	buf := AppendAppHeader(nil, l, &h)

	for _, n := range []int{2, 6, 10, 20, 40, 50, len(buf) - 1} {
		_, err := ParseAppHeader(encoding.NewCursor(buf[:n]), l)
		require.ErrorIs(t, err, errs.ErrTruncatedInput, "cut at %d", n)
	}
}
