// internal/service/store/domain/port/report.go
package port

import "context"

// ReportStore 是报表制品（CSV）的出站端口。
type ReportStore interface {
	// Upload 上传一份报表，返回存放它的桶名。
	Upload(ctx context.Context, key string, data []byte) (bucket string, err error)
}

// ReportLocker 保证同一种报表同时只有一个实例在生成。
type ReportLocker interface {
	// Acquire 获取指定资源的互斥锁，返回释放函数。
	Acquire(resource string) (release func(), err error)
}
