// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/staranto/urlcache/cacheerr"
)

// S3API is the slice of the S3 client a Fetcher needs. *s3.Client satisfies
// it.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ErrS3Disabled is the cause attached to s3:// requests on a Fetcher built
// without WithS3.
var ErrS3Disabled = errors.New("s3 source not configured")

// ParseS3URL splits s3://bucket/key into its bucket and key.
func ParseS3URL(u *url.URL) (bucket, key string, err error) {
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 url %q must be s3://bucket/key", u.String())
	}
	return bucket, key, nil
}

func (f *Fetcher) fetchS3(ctx context.Context, req Request, u *url.URL) ([]byte, error) {
	if f.s3 == nil {
		return nil, cacheerr.New(cacheerr.ErrFetchFailed, "fetch", req.URL, ErrS3Disabled)
	}
	bucket, key, err := ParseS3URL(u)
	if err != nil {
		return nil, cacheerr.New(cacheerr.ErrFetchFailed, "fetch", req.URL, err)
	}

	// The HTTP client deadline does not reach the SDK, so bound it here.
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if v := u.Query().Get("versionId"); v != "" {
		input.VersionId = aws.String(v)
	}

	out, err := f.s3.GetObject(ctx, input)
	if err != nil {
		return nil, classifyS3(req.URL, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, classify(req.URL, fmt.Errorf("failed to read S3 object body: %w", err))
	}
	return data, nil
}

func classifyS3(input string, err error) error {
	if IsTimeout(err) {
		return cacheerr.New(cacheerr.ErrTimeout, "fetch", input, err)
	}

	e := cacheerr.New(cacheerr.ErrFetchFailed, "fetch", input, err)
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		e.StatusCode = re.HTTPStatusCode()
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		e.Err = fmt.Errorf("%s: %w", apiErr.ErrorCode(), err)
	}
	return e
}
