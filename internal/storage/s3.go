package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ateliercms/api/internal/imageref"
)

// S3 stores images in an S3-compatible bucket (AWS, CEPH, MinIO). Object
// keys carry no file extension; the key doubles as the object id, so a
// stored URL and the id it resolves to never disagree about suffixes.
type S3 struct {
	client    *s3.Client
	bucket    string
	publicURL string // base URL where bucket objects are reachable

	mu     sync.Mutex
	mtimes map[string]time.Time // object key -> LastModified, filled by List
}

// S3Config holds the settings for an S3-compatible connection.
type S3Config struct {
	Endpoint       string
	Region         string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool // true for CEPH/MinIO
	Bucket         string
	PublicURL      string // public base URL for the bucket
}

// NewS3 creates an S3-compatible storage backend.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return &S3{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		mtimes:    make(map[string]time.Time),
	}, nil
}

func (s *S3) Store(ctx context.Context, namespace string, data []byte) (string, error) {
	key := imageref.Prefix + namespace + "/" + uniqueName()

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/jpeg"),
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("putting object %s: %w", key, err)
	}

	return s.publicURL + "/" + key, nil
}

// Delete resolves the object id from addr and removes the object. A
// missing object counts as a successful, already-done deletion.
func (s *S3) Delete(ctx context.Context, addr string) (bool, error) {
	key := imageref.RemoteObjectID(addr, s.hostMarker())
	if key == "" {
		return false, nil
	}

	input := &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if _, err := s.client.DeleteObject(ctx, input); err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return false, nil
		}
		return false, fmt.Errorf("deleting object %s: %w", key, err)
	}
	return true, nil
}

// List pages through the bucket under uploads/<namespace>/ and returns the
// public URL of every object.
func (s *S3) List(ctx context.Context, namespace string) ([]string, error) {
	prefix := imageref.Prefix
	if namespace != "" {
		prefix += namespace + "/"
	}

	var addrs []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing objects under %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if obj.LastModified != nil {
				s.rememberModTime(key, *obj.LastModified)
			}
			addrs = append(addrs, s.publicURL+"/"+key)
		}
	}
	return addrs, nil
}

func (s *S3) rememberModTime(key string, t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mtimes[key] = t
}

// ModTime returns the LastModified timestamp cached by the most recent
// List covering addr. The orphan sweeper always lists before it stats, so
// the cache is warm for every address it checks; an unknown address
// returns an error and is treated as old enough to sweep.
func (s *S3) ModTime(addr string) (time.Time, error) {
	key := imageref.RemoteObjectID(addr, s.hostMarker())
	if key == "" {
		return time.Time{}, fmt.Errorf("no object id in %s", addr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.mtimes[key]; ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("no listed timestamp for %s", key)
}

// hostMarker is the substring that identifies this backend's URLs, used
// when reducing a stored URL back to an object id.
func (s *S3) hostMarker() string {
	return strings.TrimPrefix(strings.TrimPrefix(s.publicURL, "https://"), "http://")
}
