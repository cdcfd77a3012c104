package s3

import (
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/credentials/ec2rolecreds"
	"github.com/aws/aws-sdk-go/aws/ec2metadata"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/vilas-cloud/transfer-bot/pkg/storage"
)

var _ storage.Storage = &S3{}

type S3 struct {
	credentials *Credentials
	sess        *session.Session
	client      *s3.S3
	uploader    *s3manager.Uploader
	downloader  *s3manager.Downloader
}

type Credentials struct {
	Region           string `json:"region"`
	Endpoint         string `json:"endpoint"`
	Insecure         bool   `json:"insecure"`
	S3ForcePathStyle bool   `json:"s3_force_path_style"`
	AccessKey        string `json:"access_key"`
	SecretKey        string `json:"secret_key"`
}

func NewSession(s3Credentials *Credentials) (*S3, error) {
	var staticCredentials credentials.StaticProvider
	if s3Credentials.AccessKey != "" && s3Credentials.SecretKey != "" {
		staticCredentials = credentials.StaticProvider{
			Value: credentials.Value{
				AccessKeyID:     s3Credentials.AccessKey,
				SecretAccessKey: s3Credentials.SecretKey,
			},
		}
	}
	credentialChain := credentials.NewChainCredentials(
		[]credentials.Provider{
			&staticCredentials,
			&credentials.EnvProvider{},
			&ec2rolecreds.EC2RoleProvider{
				Client: ec2metadata.New(session.New()),
			},
		})
	sess, err := session.NewSession(&aws.Config{
		Credentials:      credentialChain,
		Endpoint:         aws.String(s3Credentials.Endpoint),
		DisableSSL:       aws.Bool(s3Credentials.Insecure),
		S3ForcePathStyle: aws.Bool(s3Credentials.S3ForcePathStyle),
		Region:           aws.String(s3Credentials.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating S3 session: %v", err)
	}

	return &S3{
		s3Credentials,
		sess,
		s3.New(sess),
		s3manager.NewUploader(sess),
		s3manager.NewDownloader(sess),
	}, nil
}

func (s *S3) HeadBucket(bucket string) error {
	_, err := s.client.HeadBucket(&s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return classifyBucketErr(err)
	}
	return nil
}

func (s *S3) Upload(bucket, key, localPath string, metadata map[string]string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	result, err := s.uploader.Upload(&s3manager.UploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		Body:     f,
		Metadata: aws.StringMap(metadata),
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	fmt.Printf("file uploaded to, %s\n", aws.StringValue(&result.Location))
	return nil
}

func (s *S3) Download(bucket, key, localPath string) error {
	f, err := os.Create(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	// A failed transfer can leave a partial file behind at localPath.
	n, err := s.downloader.Download(f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return classifyObjectErr(err)
	}
	fmt.Printf("file downloaded, %d bytes\n", n)
	return nil
}

func (s *S3) HeadObject(bucket, key string) (map[string]string, error) {
	out, err := s.client.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classifyObjectErr(err)
	}
	// The SDK canonicalizes metadata header keys ("md5" comes back as
	// "Md5"), lowercase them so lookups stay stable across backends.
	metadata := make(map[string]string, len(out.Metadata))
	for k, v := range out.Metadata {
		metadata[strings.ToLower(k)] = aws.StringValue(v)
	}
	return metadata, nil
}

func (s *S3) ListObjects(bucket string, fn func(storage.ObjectInfo) bool) error {
	err := s.client.ListObjectsV2Pages(&s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			info := storage.ObjectInfo{
				Key:          aws.StringValue(obj.Key),
				Size:         aws.Int64Value(obj.Size),
				LastModified: aws.TimeValue(obj.LastModified),
			}
			if !fn(info) {
				return false
			}
		}
		return true
	})
	if err != nil {
		return classifyBucketErr(err)
	}
	return nil
}

// Head calls report failures as a RequestFailure with a generic code
// and the real signal in the HTTP status, so both are inspected.
func classifyBucketErr(err error) error {
	if reqErr, ok := err.(awserr.RequestFailure); ok {
		switch reqErr.StatusCode() {
		case 404:
			return fmt.Errorf("%w: %v", storage.ErrBucketNotFound, err)
		case 403:
			return fmt.Errorf("%w: %v", storage.ErrAccessDenied, err)
		}
	}
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case "NotFound", s3.ErrCodeNoSuchBucket:
			return fmt.Errorf("%w: %v", storage.ErrBucketNotFound, err)
		case "Forbidden", "AccessDenied":
			return fmt.Errorf("%w: %v", storage.ErrAccessDenied, err)
		}
	}
	return fmt.Errorf("backend error: %w", err)
}

func classifyObjectErr(err error) error {
	if reqErr, ok := err.(awserr.RequestFailure); ok && reqErr.StatusCode() == 404 {
		return fmt.Errorf("%w: %v", storage.ErrObjectNotFound, err)
	}
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case "NotFound", s3.ErrCodeNoSuchKey:
			return fmt.Errorf("%w: %v", storage.ErrObjectNotFound, err)
		case s3.ErrCodeNoSuchBucket:
			return fmt.Errorf("%w: %v", storage.ErrBucketNotFound, err)
		case "Forbidden", "AccessDenied":
			return fmt.Errorf("%w: %v", storage.ErrAccessDenied, err)
		}
	}
	return fmt.Errorf("backend error: %w", err)
}
