// Package export writes point-in-time JSON snapshots of all contacts to S3.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vortex-fintech/contacts/contact"
	"github.com/vortex-fintech/contacts/foundation/logger"
	"github.com/vortex-fintech/contacts/foundation/timeutil"
)

const keyTimeLayout = "20060102T150405Z"

// Lister is satisfied by *contact.Service.
type Lister interface {
	ListAll(ctx context.Context) ([]contact.Contact, error)
}

// ObjectPutter is satisfied by *s3.Client.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Document is the stored snapshot. Contacts keep ListAll order.
type Document struct {
	ExportedAt time.Time         `json:"exportedAt"`
	Count      int               `json:"count"`
	Contacts   []contact.Contact `json:"contacts"`
}

// Result describes a written snapshot.
type Result struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Count  int    `json:"count"`
	ETag   string `json:"etag,omitempty"`
}

type Exporter struct {
	src    Lister
	dst    ObjectPutter
	bucket string
	prefix string
	clock  timeutil.Clock
	log    logger.LoggerInterface
}

type Option func(*Exporter)

func WithClock(c timeutil.Clock) Option {
	return func(e *Exporter) {
		if c != nil {
			e.clock = c
		}
	}
}

func WithLogger(l logger.LoggerInterface) Option {
	return func(e *Exporter) {
		if l != nil {
			e.log = l
		}
	}
}

func New(src Lister, dst ObjectPutter, bucket, prefix string, opts ...Option) *Exporter {
	e := &Exporter{
		src:    src,
		dst:    dst,
		bucket: bucket,
		prefix: prefix,
		clock:  timeutil.UTCClock{},
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Key returns the object key of a snapshot taken at t.
func (e *Exporter) Key(t time.Time) string {
	return e.prefix + "contacts-" + t.UTC().Format(keyTimeLayout) + ".json"
}

// Snapshot lists every contact and uploads them as one JSON object.
func (e *Exporter) Snapshot(ctx context.Context) (Result, error) {
	list, err := e.src.ListAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("export: list: %w", err)
	}
	if list == nil {
		list = []contact.Contact{}
	}

	now := timeutil.Stamp(e.clock)
	body, err := json.Marshal(Document{ExportedAt: now, Count: len(list), Contacts: list})
	if err != nil {
		return Result{}, fmt.Errorf("export: encode: %w", err)
	}

	key := e.Key(now)
	out, err := e.dst.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(e.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return Result{}, fmt.Errorf("export: put s3://%s/%s: %w", e.bucket, key, err)
	}

	res := Result{Bucket: e.bucket, Key: key, Count: len(list)}
	if out != nil && out.ETag != nil {
		res.ETag = *out.ETag
	}
	e.log.InfowCtx(ctx, "contacts exported", "bucket", e.bucket, "key", key, "count", res.Count)
	return res, nil
}
