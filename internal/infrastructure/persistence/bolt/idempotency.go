// Package bolt 基于BoltDB的本地持久化
//
// 结算幂等键只需要"按key查订单ID"，不需要一个完整的数据库。
// BoltDB把数据放在单个文件里，进程重启后幂等键仍然有效，
// 客户端在服务重启前后重试同一个结算请求都不会重复下单。
package bolt

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/boltdb/bolt"

	"github.com/xiebiao/bookshop/internal/domain/order"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

const bucketName = "checkout_idempotency"

// IdempotencyStore BoltDB实现的结算幂等键存储
// Key设计：{user_id}:{idempotency_key}，值为8字节大端订单ID
type IdempotencyStore struct {
	db *bolt.DB
}

// Open 打开(或创建)数据库文件并确保bucket存在
// 同一个文件同时只能被一个进程打开，超时1秒后报错
func Open(path string) (*IdempotencyStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("打开幂等键存储失败: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化幂等键存储失败: %w", err)
	}

	return &IdempotencyStore{db: db}, nil
}

var _ order.IdempotencyStore = (*IdempotencyStore)(nil)

// Close 释放文件锁
func (s *IdempotencyStore) Close() error {
	return s.db.Close()
}

func recordKey(userID uint, key string) []byte {
	return []byte(fmt.Sprintf("%d:%s", userID, key))
}

// Lookup 查找key对应的订单ID
func (s *IdempotencyStore) Lookup(ctx context.Context, userID uint, key string) (uint, bool, error) {
	var (
		orderID uint
		found   bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketName)).Get(recordKey(userID, key))
		if v == nil {
			return nil
		}
		if len(v) != 8 {
			return fmt.Errorf("幂等键记录长度异常: %d", len(v))
		}
		orderID = uint(binary.BigEndian.Uint64(v))
		found = true
		return nil
	})
	if err != nil {
		return 0, false, apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}
	return orderID, found, nil
}

// Save 记录key对应的订单ID
// 已存在的key不覆盖：第一次结算产生的订单才是这个key的结果
func (s *IdempotencyStore) Save(ctx context.Context, userID uint, key string, orderID uint) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		k := recordKey(userID, key)
		if b.Get(k) != nil {
			return nil
		}
		v := make([]byte, 8)
		binary.BigEndian.PutUint64(v, uint64(orderID))
		return b.Put(k, v)
	})
	if err != nil {
		return apperrors.WithCause(apperrors.ErrDatabaseError, err)
	}
	return nil
}
