// Package persistence keeps uploaded receipt images in a bbolt file so the
// relational database only stores their keys.
package persistence

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

var imagesBucket = []byte("receipt_images")

// ErrImageNotFound is returned for unknown keys.
var ErrImageNotFound = errors.New("image not found")

// Image is a stored receipt scan.
type Image struct {
	ContentType string
	Filename    string
	Data        []byte
	StoredAt    time.Time
}

// ImageStore is a key/value store of receipt images.
type ImageStore struct {
	db *bbolt.DB
}

// NewImageStore opens or creates the bbolt file at path.
func NewImageStore(path string) (*ImageStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open image store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(imagesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &ImageStore{db: db}, nil
}

// Put stores img under a new random key and returns the key.
func (s *ImageStore) Put(img *Image) (string, error) {
	if img.StoredAt.IsZero() {
		img.StoredAt = time.Now().UTC()
	}
	data, err := encodeToBinary(img)
	if err != nil {
		return "", err
	}

	key := uuid.NewString()
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(imagesBucket).Put([]byte(key), data)
	})
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return key, nil
}

// Get loads the image stored under key.
func (s *ImageStore) Get(key string) (*Image, error) {
	var img Image
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(imagesBucket).Get([]byte(key))
		if data == nil {
			return ErrImageNotFound
		}
		return decodeBinary(data, &img)
	})
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// Delete removes key. Deleting an unknown key is not an error.
func (s *ImageStore) Delete(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(imagesBucket).Delete([]byte(key))
	})
}

// Count returns the number of stored images.
func (s *ImageStore) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(imagesBucket).Stats().KeyN
		return nil
	})
	return n, err
}

func (s *ImageStore) Close() error {
	return s.db.Close()
}

func encodeToBinary(data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(data)
	return buf.Bytes(), err
}

func decodeBinary(data []byte, target interface{}) error {
	buf := bytes.NewBuffer(data)
	return gob.NewDecoder(buf).Decode(target)
}
