// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package storage_files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/configs"
)

// s3Storage talks to an S3-compatible bucket. The AWS session is built on
// first use and memoized, so a misconfigured store only surfaces when a
// pipeline actually touches it.
type s3Storage struct {
	cfg    configs.AssetStoreConfig
	logger commons.Logger

	once       sync.Once
	initErr    error
	client     *s3.S3
	uploader   *s3manager.Uploader
	downloader *s3manager.Downloader
}

// NewStorage returns the S3-backed Storage for the configured bucket.
func NewStorage(cfg configs.AssetStoreConfig, logger commons.Logger) Storage {
	return &s3Storage{cfg: cfg, logger: logger}
}

func (s *s3Storage) init() error {
	s.once.Do(func() {
		awsCfg := aws.NewConfig().WithRegion(s.cfg.Region)
		if s.cfg.AccessKey != "" {
			awsCfg = awsCfg.WithCredentials(
				credentials.NewStaticCredentials(s.cfg.AccessKey, s.cfg.SecretKey, ""),
			)
		}
		if s.cfg.Endpoint != "" {
			awsCfg = awsCfg.WithEndpoint(s.cfg.Endpoint)
		}
		if s.cfg.PathStyle {
			awsCfg = awsCfg.WithS3ForcePathStyle(true)
		}

		sess, err := session.NewSession(awsCfg)
		if err != nil {
			s.initErr = fmt.Errorf("creating aws session: %w", err)
			return
		}
		s.client = s3.New(sess)
		s.uploader = s3manager.NewUploader(sess)
		s.downloader = s3manager.NewDownloader(sess)
	})
	return s.initErr
}

func (s *s3Storage) Store(ctx context.Context, key string, data []byte, contentType string) error {
	if err := s.init(); err != nil {
		return err
	}
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("storing object %s: %w", key, err)
	}
	s.logger.Debugf("stored object %s (%d bytes)", key, len(data))
	return nil
}

func (s *s3Storage) Retrieve(ctx context.Context, key string) ([]byte, error) {
	if err := s.init(); err != nil {
		return nil, err
	}
	buf := aws.NewWriteAtBuffer([]byte{})
	_, err := s.downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("retrieving object %s: %w", key, err)
	}
	return buf.Bytes(), nil
}

func (s *s3Storage) Delete(ctx context.Context, key string) error {
	if err := s.init(); err != nil {
		return err
	}
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting object %s: %w", key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
