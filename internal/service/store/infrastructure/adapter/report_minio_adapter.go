// internal/service/store/infrastructure/adapter/report_minio_adapter.go
package adapter

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ReportMinioAdapter 实现了 port.ReportStore 接口，
// 报表 CSV 作为对象写入 S3 兼容的存储
type ReportMinioAdapter struct {
	client *minio.Client
	bucket string
}

// NewReportMinioAdapter 创建适配器并确保目标桶存在
func NewReportMinioAdapter(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*ReportMinioAdapter, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for %s: %w", endpoint, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check report bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create report bucket %s: %w", bucket, err)
		}
	}

	return &ReportMinioAdapter{client: client, bucket: bucket}, nil
}

// Upload 上传一份 CSV 报表，返回桶名
func (a *ReportMinioAdapter) Upload(ctx context.Context, key string, data []byte) (string, error) {
	_, err := a.client.PutObject(ctx, a.bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "text/csv"},
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload report %s: %w", key, err)
	}
	return a.bucket, nil
}
