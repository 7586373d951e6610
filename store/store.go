package store

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"slices"

	"github.com/arloliu/appinfo/errs"
	"github.com/arloliu/appinfo/format"
	"github.com/arloliu/appinfo/kv"
	"github.com/arloliu/appinfo/section"
)

// AppEntry is one application: its envelope and its KeyValue tree.
//
// Size and the checksums reflect the last load or write; they are
// recomputed from Data on every write.
type AppEntry struct {
	section.AppHeader
	Data *kv.Dict
}

// Diagnostic is a non-fatal anomaly found while decoding one app.
type Diagnostic struct {
	AppID  uint32
	Offset int // offset of the app entry in the file
	Err    error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("app %d at offset %d: %v", d.AppID, d.Offset, d.Err)
}

// Store is an in-memory appinfo.vdf.
type Store struct {
	cfg         *Config
	header      section.Header
	layout      section.Layout
	path        string
	apps        map[uint32]*AppEntry
	order       []uint32
	strings     *section.StringTable
	diagnostics []Diagnostic
}

// New creates an empty store. The version and universe come from
// WithVersion and WithUniverse.
func New(opts ...Option) (*Store, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return newStore(cfg, section.Header{Version: cfg.version, Universe: cfg.universe})
}

func newStore(cfg *Config, h section.Header) (*Store, error) {
	layout, err := section.LayoutFor(h.Version)
	if err != nil {
		return nil, err
	}

	s := &Store{
		cfg:    cfg,
		header: h,
		layout: layout,
		apps:   make(map[uint32]*AppEntry),
	}
	if layout.HasStringTable {
		s.strings = section.NewStringTable(nil)
	}

	return s, nil
}

// Version returns the file version.
func (s *Store) Version() format.Version {
	return s.header.Version
}

// Universe returns the universe stored in the header.
func (s *Store) Universe() format.Universe {
	return s.header.Universe
}

// Layout returns the envelope layout of the store's version.
func (s *Store) Layout() section.Layout {
	return s.layout
}

// Path returns the path the store was loaded from or last written to.
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of apps.
func (s *Store) Len() int {
	return len(s.order)
}

// AppIDs returns the app ids in file order.
func (s *Store) AppIDs() []uint32 {
	return slices.Clone(s.order)
}

// All iterates the apps in file order.
func (s *Store) All() iter.Seq2[uint32, *AppEntry] {
	return func(yield func(uint32, *AppEntry) bool) {
		for _, id := range s.order {
			if !yield(id, s.apps[id]) {
				return
			}
		}
	}
}

// GetApp returns the entry of appID. The entry is shared with the store;
// changes to its Data are written by the next Write.
func (s *Store) GetApp(appID uint32) (*AppEntry, bool) {
	e, ok := s.apps[appID]
	return e, ok
}

// SetApp stores data as the tree of appID. An existing entry keeps its
// position and envelope; a new entry is appended with a zero envelope.
//
// Returns errs.ErrInvalidAppID for app id 0, which is the end marker, and
// errs.ErrInvalidNode for a nil tree.
func (s *Store) SetApp(appID uint32, data *kv.Dict) error {
	if appID == 0 {
		return fmt.Errorf("%w: 0 is reserved", errs.ErrInvalidAppID)
	}
	if data == nil {
		return fmt.Errorf("%w: nil tree for app %d", errs.ErrInvalidNode, appID)
	}

	if e, ok := s.apps[appID]; ok {
		e.Data = data
		return nil
	}

	s.put(&AppEntry{AppHeader: section.AppHeader{AppID: appID}, Data: data})

	return nil
}

// DeleteApp removes appID and reports whether it was present.
func (s *Store) DeleteApp(appID uint32) bool {
	if _, ok := s.apps[appID]; !ok {
		return false
	}

	delete(s.apps, appID)
	s.order = slices.DeleteFunc(s.order, func(id uint32) bool { return id == appID })

	return true
}

// StringTable returns the string table, nil before Version41.
func (s *Store) StringTable() *section.StringTable {
	return s.strings
}

// Diagnostics returns the anomalies recorded by the load.
func (s *Store) Diagnostics() []Diagnostic {
	return slices.Clone(s.diagnostics)
}

// put adds or replaces an entry. A replaced entry keeps its position.
func (s *Store) put(e *AppEntry) {
	if _, ok := s.apps[e.AppID]; !ok {
		s.order = append(s.order, e.AppID)
	}
	s.apps[e.AppID] = e
}

func (s *Store) diagnose(appID uint32, offset int, err error) {
	s.diagnostics = append(s.diagnostics, Diagnostic{AppID: appID, Offset: offset, Err: err})
	s.cfg.logger.LogAttrs(context.Background(), slog.LevelWarn, "appinfo decode anomaly",
		slog.Uint64("app_id", uint64(appID)),
		slog.Int("offset", offset),
		slog.String("error", err.Error()),
	)
}
