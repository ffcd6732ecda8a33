package repository

import (
	"context"

	"gorm.io/gorm"
)

// 营业记录分页默认值
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// BaseRepository 存档和营业记录仓储共有的接口
type BaseRepository interface {
	GetDB() *gorm.DB
}

// Pagination 营业记录分页参数，Total 由查询回填
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// NewPagination 创建分页参数，页码从 1 开始，页大小限制在 [1, MaxPageSize]
func NewPagination(page, pageSize int) *Pagination {
	if page <= 0 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return &Pagination{Page: page, PageSize: pageSize}
}

func (p *Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Paginate gorm 分页作用域
func Paginate(p *Pagination) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.PageSize)
	}
}

// BaseRepo 持有连接，事务内通过 withTx 派生同类型仓储
type BaseRepo struct {
	db *gorm.DB
}

func NewBaseRepo(db *gorm.DB) *BaseRepo {
	return &BaseRepo{db: db}
}

func (r *BaseRepo) GetDB() *gorm.DB {
	return r.db
}

// withTx 在事务内执行 fn，fn 拿到绑定事务连接的 BaseRepo
func (r *BaseRepo) withTx(ctx context.Context, fn func(tx *BaseRepo) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewBaseRepo(tx))
	})
}
