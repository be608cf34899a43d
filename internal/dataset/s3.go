package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/joseph-ayodele/receipts-eval/internal/common"
)

// s3API is the subset of *s3.Client the store uses.
type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps datasets under a key prefix of an S3 bucket.
type S3Store struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Store builds a store from S3Config. A custom endpoint switches to path
// style addressing so S3 compatible servers work.
func NewS3Store(ctx context.Context, cfg common.S3Config) (*S3Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, common.NewAppError(common.CodeStorage, "loading aws config", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return newS3Store(s3.NewFromConfig(awsCfg, s3Opts...), cfg.Bucket, cfg.Prefix), nil
}

func newS3Store(client s3API, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3Store) key(parts ...string) string {
	if s.prefix != "" {
		parts = append([]string{s.prefix}, parts...)
	}
	return path.Join(parts...)
}

// list returns the sub-directory names and file names directly under prefix,
// following continuation tokens.
func (s *S3Store) list(ctx context.Context, prefix string) (dirs, files []string, err error) {
	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	}
	for {
		out, err := s.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, nil, common.NewAppError(common.CodeStorage, "s3 list", err)
		}
		for _, p := range out.CommonPrefixes {
			dirs = append(dirs, strings.TrimSuffix(strings.TrimPrefix(aws.ToString(p.Prefix), prefix), "/"))
		}
		for _, o := range out.Contents {
			files = append(files, strings.TrimPrefix(aws.ToString(o.Key), prefix))
		}
		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}
	sort.Strings(dirs)
	sort.Strings(files)
	return dirs, files, nil
}

func (s *S3Store) List(ctx context.Context, dataset, split string) ([]DataPoint, error) {
	dirs, _, err := s.list(ctx, s.key(dataset, split)+"/")
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		return nil, common.NewAppError(common.CodeDataset,
			fmt.Sprintf("split %s/%s", dataset, split), common.ErrNotFound)
	}
	out := make([]DataPoint, len(dirs))
	for i, id := range dirs {
		out[i] = DataPoint{Dataset: dataset, Split: split, ID: id}
	}
	return out, nil
}

func (s *S3Store) Files(ctx context.Context, dp DataPoint) ([]string, error) {
	_, files, err := s.list(ctx, s.key(dp.Dataset, dp.Split, dp.ID)+"/")
	return files, err
}

func (s *S3Store) Load(ctx context.Context, dp DataPoint, name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(dp.Dataset, dp.Split, dp.ID, name)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, notFound(dp, name, err)
		}
		return nil, common.NewAppError(common.CodeStorage, "s3 download", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, common.NewAppError(common.CodeStorage, "s3 download read", err)
	}
	return data, nil
}

func (s *S3Store) Save(ctx context.Context, dp DataPoint, name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(dp.Dataset, dp.Split, dp.ID, name)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return common.NewAppError(common.CodeStorage, "s3 upload", err)
	}
	return nil
}

var _ Store = (*S3Store)(nil)
