package mail

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// objectPutter is the subset of *s3.Client used by S3Sender.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config describes the S3-compatible bucket used as a mail outbox.
type S3Config struct {
	Region       string
	RootUser     string
	RootPassword string
	BaseEndpoint string
	Bucket       string

	From      string
	VerifyURL string
}

// S3Sender drops composed messages into an S3 bucket under outbox/ where a
// relay picks them up.
type S3Sender struct {
	client    objectPutter
	bucket    string
	from      string
	verifyURL string
	now       func() time.Time
}

// NewS3Sender builds the S3 client from static credentials.
func NewS3Sender(ctx context.Context, c S3Config) (*S3Sender, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.RootUser,
			c.RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Sender{
		client:    client,
		bucket:    c.Bucket,
		from:      c.From,
		verifyURL: c.VerifyURL,
		now:       time.Now,
	}, nil
}

// OutboxKey returns a fresh object key for a message created at t.
func OutboxKey(t time.Time) string {
	return fmt.Sprintf("outbox/%04d/%02d/%02d/%s.eml", t.Year(), t.Month(), t.Day(), uuid.New())
}

func (s *S3Sender) SendVerificationEmail(ctx context.Context, address, code string) error {
	now := s.now()
	msg, err := composeVerification(s.from, address, s.verifyURL, code, now)
	if err != nil {
		return err
	}

	key := OutboxKey(now)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(msg),
		ContentType: aws.String("message/rfc822"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}
