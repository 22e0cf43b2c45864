// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage keeps rendered page snapshots in S3-compatible object
// storage. Snapshots are what a NO_CODE deployment publishes, so each one
// is addressed by the hash of its HTML and never overwritten.
package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// Options configures the client. PublicURL, when set, replaces the
// path-style endpoint/bucket prefix in returned URLs (CDN in front).
type Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
}

// Client wraps an S3 client bound to one bucket.
type Client struct {
	s3        *s3.Client
	bucket    string
	endpoint  string
	publicURL string
}

// New builds a path-style client. It returns (nil, nil) when endpoint or
// credentials are missing so the service can run without snapshots.
func New(opts Options) (*Client, error) {
	if opts.Endpoint == "" || opts.AccessKey == "" || opts.SecretKey == "" {
		return nil, nil
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required when an endpoint is configured")
	}
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	endpoint := strings.TrimRight(opts.Endpoint, "/")
	client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		UsePathStyle: true,
	})

	return &Client{
		s3:        client,
		bucket:    opts.Bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(opts.PublicURL, "/"),
	}, nil
}

// SnapshotKey returns the object key for a page snapshot.
func SnapshotKey(projectID uuid.UUID, html []byte) string {
	sum := sha256.Sum256(html)
	return fmt.Sprintf("pages/%s/%s/index.html", projectID, hex.EncodeToString(sum[:8]))
}

// UploadPage stores a rendered page and returns its public URL.
func (c *Client) UploadPage(ctx context.Context, projectID uuid.UUID, html []byte) (string, error) {
	key := SnapshotKey(projectID, html)
	if err := c.Upload(ctx, key, "text/html; charset=utf-8", bytes.NewReader(html), int64(len(html))); err != nil {
		return "", err
	}
	return c.FileURL(key), nil
}

// Upload stores an object with a public-read ACL.
func (c *Client) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// DeleteURL removes the object behind a URL previously returned by
// UploadPage. URLs that do not belong to this bucket are ignored.
func (c *Client) DeleteURL(ctx context.Context, rawURL string) error {
	key, ok := c.ExtractKey(rawURL)
	if !ok {
		return nil
	}
	return c.Delete(ctx, key)
}

// FileURL returns the public URL of key.
func (c *Client) FileURL(key string) string {
	if c.publicURL != "" {
		return c.publicURL + "/" + key
	}
	return c.endpoint + "/" + c.bucket + "/" + key
}

// ExtractKey is the inverse of FileURL.
func (c *Client) ExtractKey(rawURL string) (string, bool) {
	if c.publicURL != "" {
		if key, ok := strings.CutPrefix(rawURL, c.publicURL+"/"); ok && key != "" {
			return key, true
		}
	}
	if key, ok := strings.CutPrefix(rawURL, c.endpoint+"/"+c.bucket+"/"); ok && key != "" {
		return key, true
	}
	return "", false
}
