// internal/service/store/infrastructure/adapter/report_zk_locker.go
package adapter

import (
	"fmt"

	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/zookeeper"
)

// ReportZkLocker 实现了 port.ReportLocker 接口，
// 用 ZooKeeper 临时顺序节点保证同一种报表全局只有一个实例在生成
type ReportZkLocker struct {
	conn *zookeeper.Conn
}

// NewReportZkLocker 创建一个新的报表互斥锁适配器
func NewReportZkLocker(conn *zookeeper.Conn) *ReportZkLocker {
	return &ReportZkLocker{conn: conn}
}

// Acquire 获取指定资源的互斥锁，返回释放函数
func (l *ReportZkLocker) Acquire(resource string) (func(), error) {
	lock, err := zookeeper.NewDistributedLock(l.conn, resource)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare lock for %s: %w", resource, err)
	}
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("failed to acquire lock for %s: %w", resource, err)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			// 临时节点会随会话结束自动清理，这里只记录
			logger.Logger().Warn().Err(err).Str("resource", resource).Msg("failed to release report lock")
		}
	}, nil
}
