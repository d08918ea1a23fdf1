package storage

import (
	"context"
	"fmt"

	"github.com/keshon/datastore"
)

// DatastoreStore keeps the marker under one key of a JSON datastore file.
type DatastoreStore struct {
	ds *datastore.DataStore
}

// NewDatastoreStore opens (or creates) the datastore file at path.
func NewDatastoreStore(path string) (*DatastoreStore, error) {
	ds, err := datastore.New(path)
	if err != nil {
		return nil, fmt.Errorf("open datastore: %w", err)
	}
	return &DatastoreStore{ds: ds}, nil
}

func (s *DatastoreStore) Load(_ context.Context) (string, bool, error) {
	v, ok := s.ds.Get(markerKey)
	if !ok || v == nil {
		return "", false, nil
	}
	marker, isString := v.(string)
	if !isString {
		return "", false, fmt.Errorf("marker has unexpected type %T", v)
	}
	return marker, marker != "", nil
}

// Save stores the marker and flushes to disk right away instead of waiting
// for the datastore's auto-save.
func (s *DatastoreStore) Save(_ context.Context, marker string) error {
	s.ds.Add(markerKey, marker)
	if err := s.ds.SaveToFile(); err != nil {
		return fmt.Errorf("flush datastore: %w", err)
	}
	return nil
}

func (s *DatastoreStore) Close() error {
	return s.ds.Close()
}
