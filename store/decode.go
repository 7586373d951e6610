package store

import (
	"errors"
	"fmt"
	"os"

	"github.com/arloliu/appinfo/encoding"
	"github.com/arloliu/appinfo/errs"
	"github.com/arloliu/appinfo/section"
)

// Load reads and decodes the file at path. The store remembers path as the
// default target of Write.
func Load(path string, opts ...Option) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read appinfo: %w", err)
	}

	s, err := Decode(data, opts...)
	if err != nil {
		return nil, err
	}
	s.path = path

	return s, nil
}

// Decode decodes a complete appinfo.vdf image.
//
// The header is validated first; an unsupported magic or version fails with
// an error matching errs.ErrIncompatibleVersion. App entries are then read
// until the app id 0 end marker, or until the end of the region before the
// string table when the marker is missing. Trees of older versions keep
// inline keys, Version41 trees resolve keys through the string table.
//
// Truncation fails the whole decode. Content anomalies are contained to the
// app they occur in and recorded in Diagnostics:
//   - unknown type tag: the app's tree is cut at the tag. When the envelope
//     carries a size, decoding resumes at the next entry. Versions 28 and 29
//     have no size, so the following entries cannot be located: decoding
//     ends there and every later app is missing from the store. See
//     WithUnknownTagPolicy for continuing past the tag instead.
//   - string table index out of range: the key becomes encoding.UnknownKey.
//   - size field disagreeing with the payload (see WithSizeValidation).
//
// With WithStrict, any diagnostic fails the decode.
//
// Parameters:
//   - data: the complete file image; it is not retained
//   - opts: decode options (WithLogger, WithSizeValidation, WithStrict,
//     WithUnknownTagPolicy)
//
// Returns:
//   - *Store: the decoded store with its Diagnostics
//   - error: header and truncation errors, or the joined diagnostics under
//     WithStrict
func Decode(data []byte, opts ...Option) (*Store, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	h, err := section.ParseHeader(encoding.NewCursor(data))
	if err != nil {
		return nil, err
	}

	s, err := newStore(cfg, h)
	if err != nil {
		return nil, err
	}

	end := len(data)
	var keys encoding.KeyResolver
	if s.layout.HasStringTable {
		if s.strings, err = section.ReadStringTable(data, h.StringTableOffset); err != nil {
			return nil, err
		}
		keys = s.strings
		end = int(h.StringTableOffset) //nolint:gosec
	}

	if err := s.decodeApps(encoding.NewCursor(data[:end]), h.Size(), keys); err != nil {
		return nil, err
	}

	if cfg.strict && len(s.diagnostics) > 0 {
		all := make([]error, 0, len(s.diagnostics))
		for _, d := range s.diagnostics {
			all = append(all, fmt.Errorf("app %d: %w", d.AppID, d.Err))
		}

		return nil, errors.Join(all...)
	}

	return s, nil
}

func (s *Store) decodeApps(c *encoding.Cursor, start int, keys encoding.KeyResolver) error {
	if err := c.Seek(start); err != nil {
		return err
	}

	dec := encoding.NewTreeDecoder(keys)
	dec.SetUnknownTagPolicy(s.cfg.unknownTags)
	for {
		entryStart := c.Offset()
		if c.Remaining() == 0 {
			s.diagnose(0, entryStart, fmt.Errorf("%w: missing end marker", errs.ErrTruncatedInput))
			return nil
		}

		h, err := section.ParseAppHeader(c, s.layout)
		if err != nil {
			return fmt.Errorf("app entry at offset %d: %w", entryStart, err)
		}
		if h.AppID == 0 {
			return nil
		}

		data, err := dec.Decode(c)
		if err != nil {
			return fmt.Errorf("app %d at offset %d: %w", h.AppID, entryStart, err)
		}
		for _, anomaly := range dec.Anomalies() {
			s.diagnose(h.AppID, entryStart, anomaly)
		}

		if _, dup := s.apps[h.AppID]; dup {
			s.diagnose(h.AppID, entryStart, fmt.Errorf("%w: duplicate app id, last entry wins", errs.ErrInvalidAppID))
		}
		s.put(&AppEntry{AppHeader: h, Data: data})

		// size counts everything after the size field
		sizedStart := entryStart + section.AppIDSize + section.SizeFieldSize
		if dec.Stopped() {
			if !s.layout.HasSize {
				if s.cfg.unknownTags == encoding.StopDict {
					continue
				}
				s.diagnose(h.AppID, entryStart, fmt.Errorf("%w: no size field to resume after app %d", errs.ErrUnknownTag, h.AppID))

				return nil
			}
			next := sizedStart + int(h.Size) //nolint:gosec
			if next < c.Offset() {
				s.diagnose(h.AppID, entryStart, fmt.Errorf("%w: size field %d ends before the unknown tag", errs.ErrSizeMismatch, h.Size))
				return nil
			}
			if err := c.Seek(next); err != nil {
				return fmt.Errorf("app %d at offset %d: resume after unknown tag: %w", h.AppID, entryStart, err)
			}

			continue
		}

		if s.layout.HasSize && s.cfg.validateSize {
			if actual := c.Offset() - sizedStart; uint64(actual) != uint64(h.Size) { //nolint:gosec
				s.diagnose(h.AppID, entryStart, fmt.Errorf("%w: size field %d, payload %d", errs.ErrSizeMismatch, h.Size, actual))
			}
		}
	}
}
