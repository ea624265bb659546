// Package fileref resolves s3:// file references into presigned HTTPS URLs
// the orchestrator can download.
package fileref

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultTTL is the lifetime of a presigned URL.
const DefaultTTL = 15 * time.Minute

// ErrInvalidReference is returned for references that are not s3://bucket/key.
var ErrInvalidReference = errors.New("fileref: invalid s3 reference")

// PresignAPI is the subset of the S3 presign client used by Presigner.
type PresignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Presigner turns s3://bucket/key references into time-limited GET URLs.
type Presigner struct {
	api PresignAPI
	ttl time.Duration
}

// NewPresigner wraps a presign client.
func NewPresigner(api PresignAPI, ttl time.Duration) *Presigner {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Presigner{api: api, ttl: ttl}
}

// NewS3Presigner builds a presigner from an AWS config. A non-empty endpoint
// switches to path-style addressing against that endpoint (LocalStack, MinIO).
func NewS3Presigner(awsCfg aws.Config, endpoint string, ttl time.Duration) *Presigner {
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return NewPresigner(s3.NewPresignClient(client), ttl)
}

// ParseRef splits s3://bucket/key.
func ParseRef(ref string) (bucket, key string, err error) {
	rest, ok := cutPrefixFold(strings.TrimSpace(ref), "s3://")
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}
	return bucket, key, nil
}

// Resolve presigns a GET for ref.
func (p *Presigner) Resolve(ctx context.Context, ref string) (string, error) {
	bucket, key, err := ParseRef(ref)
	if err != nil {
		return "", err
	}
	req, err := p.api.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return "", fmt.Errorf("fileref: presign %s: %w", ref, err)
	}
	return req.URL, nil
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}
