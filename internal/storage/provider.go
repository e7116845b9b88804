// Package storage defines the flat-file collection store.
package storage

import "github.com/starford/flatrest/internal/models"

// RecordStore is the interface for resource collection files.
type RecordStore interface {
	// Names returns the base name of every collection file, sorted.
	Names() ([]string, error)
	// List returns the records of a collection, creating an empty file if absent.
	List(name string) ([]models.Record, error)
	// Replace overwrites a collection with records.
	Replace(name string, records []models.Record) error
	// Path returns the backing file of a collection.
	Path(name string) string
}

// DocumentStore holds named raw JSON documents.
type DocumentStore interface {
	Names() ([]string, error)
	// ReadDocument returns an error wrapping os.ErrNotExist when the document is absent.
	ReadDocument(name string) ([]byte, error)
	WriteDocument(name string, data []byte) error
}
