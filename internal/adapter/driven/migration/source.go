package migration

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4/source"
)

// recordSource serves Migration records to golang-migrate as a read-only
// source driver.
type recordSource struct {
	index   *source.Migrations
	records map[uint]Migration
}

var _ source.Driver = (*recordSource)(nil)

func newRecordSource(migrations []Migration) (*recordSource, error) {
	src := &recordSource{
		index:   source.NewMigrations(),
		records: make(map[uint]Migration, len(migrations)),
	}
	for _, m := range migrations {
		if _, dup := src.records[m.Version]; dup {
			return nil, fmt.Errorf("duplicate migration version %d", m.Version)
		}
		src.records[m.Version] = m
		src.index.Append(&source.Migration{
			Version:    m.Version,
			Identifier: m.Name,
			Direction:  source.Up,
			Raw:        m.Name,
		})
	}
	return src, nil
}

func (s *recordSource) Open(string) (source.Driver, error) {
	return nil, errors.New("record source cannot be opened by URL")
}

func (s *recordSource) Close() error { return nil }

func (s *recordSource) First() (uint, error) {
	if v, ok := s.index.First(); ok {
		return v, nil
	}
	return 0, notExist("first", 0)
}

func (s *recordSource) Prev(version uint) (uint, error) {
	if v, ok := s.index.Prev(version); ok {
		return v, nil
	}
	return 0, notExist("prev", version)
}

func (s *recordSource) Next(version uint) (uint, error) {
	if v, ok := s.index.Next(version); ok {
		return v, nil
	}
	return 0, notExist("next", version)
}

func (s *recordSource) ReadUp(version uint) (io.ReadCloser, string, error) {
	m, ok := s.records[version]
	if !ok {
		return nil, "", notExist("read up", version)
	}
	return io.NopCloser(strings.NewReader(m.SQL)), m.Name, nil
}

// ReadDown always reports a missing file; migrations are forward-only.
func (s *recordSource) ReadDown(version uint) (io.ReadCloser, string, error) {
	return nil, "", notExist("read down", version)
}

// notExist builds the error golang-migrate treats as "no such migration".
func notExist(op string, version uint) error {
	return &fs.PathError{
		Op:   op + " for version " + strconv.FormatUint(uint64(version), 10),
		Path: "migrations",
		Err:  fs.ErrNotExist,
	}
}
