package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"exdir/pkg/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Adapter 实现了 storage.Backend 接口
// 目录没有实体：目录 "a/b" 存在，当且仅当有 key 以 "a/b/" 开头
type Adapter struct {
	client *s3.Client
	bucket string
	prefix string // 仓库在 bucket 里的根前缀，例如 "stores/session-1"
}

// Config 用于初始化 Adapter
type Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
}

// NewAdapter 初始化 S3 客户端 (适配 AWS SDK v2 最新规范)
func NewAdapter(ctx context.Context, cfg Config) (*Adapter, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	// 1. 加载基础配置 (仅包含 Region 和 Credentials)
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	// 2. 创建 S3 客户端时，注入特定于 S3 的配置
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// 如果指定了 Endpoint (比如 MinIO 的 localhost:9000)，则覆盖默认值
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		// MinIO 必须强制使用 Path Style
		o.UsePathStyle = true
	})

	// 3. 确保 Bucket 存在
	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &cfg.Bucket})
	if err != nil {
		_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: &cfg.Bucket})
		if err != nil {
			// 并发创建或权限问题，先继续，真正读写时会再报错
			slog.Warn("failed to ensure bucket exists", "bucket", cfg.Bucket, "error", err)
		}
	}

	return &Adapter{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// key 把仓库内的相对名字转换成 S3 Key
// Logic: prefix "p" + "grp/meta.yml" -> "p/grp/meta.yml"
func (s *Adapter) key(name string) string {
	name = strings.Trim(name, "/")
	switch {
	case s.prefix == "":
		return name
	case name == "":
		return s.prefix
	}
	return s.prefix + "/" + name
}

// dirPrefix 是目录下所有 key 的公共前缀 (以 "/" 结尾)，根目录且无 prefix 时为 ""
func (s *Adapter) dirPrefix(name string) string {
	k := s.key(name)
	if k == "" {
		return ""
	}
	return k + "/"
}

func isNotFound(err error) bool {
	var notFound *s3types.NotFound
	var noKey *s3types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noKey) {
		return true
	}
	// 兼容性：某些 S3 实现可能返回 generic 404 error string
	return strings.Contains(err.Error(), "404")
}

func (s *Adapter) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		// 将 AWS 的 NoSuchKey 错误映射为我们自己的 ErrNotFound
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, storage.IOError("s3 get", name, err)
	}
	return resp.Body, nil
}

func (s *Adapter) ReadFile(ctx context.Context, name string) ([]byte, error) {
	body, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, storage.IOError("s3 read", name, err)
	}
	return data, nil
}

// WriteFile 单次 PutObject 本身就是原子的
func (s *Adapter) WriteFile(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(name)),
	})
	if err != nil {
		return storage.IOError("s3 put", name, err)
	}
	return nil
}

// 标记 Content-Type 有助于在浏览器中预览，对逻辑无影响
func contentType(name string) string {
	switch {
	case strings.HasSuffix(name, ".yml"), strings.HasSuffix(name, ".yaml"):
		return "application/yaml"
	case strings.HasSuffix(name, ".npy"):
		return "application/x-npy"
	}
	return "application/octet-stream"
}

func (s *Adapter) hasObject(ctx context.Context, name string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, storage.IOError("s3 head", name, err)
}

func (s *Adapter) Exists(ctx context.Context, name string) (bool, error) {
	if name != "" {
		ok, err := s.hasObject(ctx, name)
		if err != nil || ok {
			return ok, err
		}
	}
	return s.IsDir(ctx, name)
}

// IsDir 只需要知道前缀下是否至少有一个 key，MaxKeys=1 就够了
func (s *Adapter) IsDir(ctx context.Context, name string) (bool, error) {
	resp, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(s.dirPrefix(name)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, storage.IOError("s3 list", name, err)
	}
	return aws.ToInt32(resp.KeyCount) > 0, nil
}

// ListDirs 利用 Delimiter 让 S3 帮我们按 "/" 折叠，CommonPrefixes 就是子目录
func (s *Adapter) ListDirs(ctx context.Context, name string) ([]string, error) {
	prefix := s.dirPrefix(name)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var (
		dirs  []string
		found bool
	)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, storage.IOError("s3 list", name, err)
		}
		if aws.ToInt32(page.KeyCount) > 0 {
			found = true
		}
		for _, cp := range page.CommonPrefixes {
			child := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			if child != "" {
				dirs = append(dirs, child)
			}
		}
	}
	if !found && len(dirs) == 0 && name != "" {
		return nil, storage.ErrNotFound
	}
	return dirs, nil
}

// MkdirAll 写一个以 "/" 结尾的空对象作为目录标记，空目录也能被列出来
func (s *Adapter) MkdirAll(ctx context.Context, name string) error {
	prefix := s.dirPrefix(name)
	if prefix == "" {
		return nil
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(prefix),
		Body:   bytes.NewReader(nil),
	})
	if err != nil {
		return storage.IOError("s3 mkdir", name, err)
	}
	return nil
}
