package media

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFSStore keeps media in a MongoDB GridFS bucket, one file per reference
type GridFSStore struct {
	bucket *gridfs.Bucket
}

// NewGridFSStore opens the "media" bucket in db
func NewGridFSStore(db *mongo.Database) (*GridFSStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName("media"))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	return &GridFSStore{bucket: bucket}, nil
}

func (s *GridFSStore) Save(ctx context.Context, folder, ext, contentType string, r io.Reader) (string, error) {
	ref := NewRef(folder, ext)
	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "contentType", Value: contentType}})
	if _, err := s.bucket.UploadFromStream(ref, r, opts); err != nil {
		return "", fmt.Errorf("upload to gridfs: %w", err)
	}
	return ref, nil
}

func (s *GridFSStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	cleaned, err := CleanRef(ref)
	if err != nil {
		return nil, err
	}
	stream, err := s.bucket.OpenDownloadStreamByName(cleaned)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return stream, nil
}

// Delete removes every revision stored under ref
func (s *GridFSStore) Delete(ctx context.Context, ref string) error {
	cleaned, err := CleanRef(ref)
	if err != nil {
		return err
	}
	cursor, err := s.bucket.FindContext(ctx, bson.D{{Key: "filename", Value: cleaned}})
	if err != nil {
		return fmt.Errorf("find gridfs file: %w", err)
	}
	var files []struct {
		ID interface{} `bson:"_id"`
	}
	if err := cursor.All(ctx, &files); err != nil {
		return fmt.Errorf("read gridfs files: %w", err)
	}
	if len(files) == 0 {
		return ErrNotFound
	}
	for _, f := range files {
		if err := s.bucket.DeleteContext(ctx, f.ID); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return fmt.Errorf("delete gridfs file: %w", err)
		}
	}
	return nil
}

func (s *GridFSStore) URL(ref string) string {
	return servedURL(ref)
}
