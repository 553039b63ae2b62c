// internal/pkg/zookeeper/conn.go
package zookeeper

import (
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
)

// Conn 是对 zk.Conn 的薄封装，统一连接参数
type Conn struct {
	*zk.Conn
}

// Connect 建立到 ZooKeeper 集群的连接
func Connect(servers string) (*Conn, error) {
	conn, _, err := zk.Connect(strings.Split(servers, ","), 10*time.Second)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn}, nil
}

// ensurePath 确保一个持久节点存在，已存在时不报错
func (c *Conn) ensurePath(path string) error {
	exists, _, err := c.Exists(path)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = c.Create(path, []byte(""), 0, zk.WorldACL(zk.PermAll))
	if err != nil && err != zk.ErrNodeExists {
		return err
	}
	return nil
}
