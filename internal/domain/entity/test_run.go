package entity

import (
	"math"
	"time"
)

// TestCaseStatus 测试用例结果
type TestCaseStatus string

const (
	TestCasePassed  TestCaseStatus = "passed"
	TestCaseFailed  TestCaseStatus = "failed"
	TestCaseSkipped TestCaseStatus = "skipped"
)

// TestCase 单个测试用例
type TestCase struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Status   TestCaseStatus `json:"status"`
	Duration string         `json:"duration,omitempty"`
	Category string         `json:"category,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// ErrorLog 测试运行中的错误日志
type ErrorLog struct {
	TestID    string    `json:"test_id"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
}

// TestSummary 测试结果汇总
type TestSummary struct {
	Total       int `json:"total"`
	Passed      int `json:"passed"`
	Failed      int `json:"failed"`
	Skipped     int `json:"skipped"`
	SuccessRate int `json:"success_rate"`
}

// Summarize 根据用例计算汇总，成功率为四舍五入的百分比
func Summarize(cases []TestCase) TestSummary {
	var s TestSummary
	for _, c := range cases {
		s.Total++
		switch c.Status {
		case TestCasePassed:
			s.Passed++
		case TestCaseFailed:
			s.Failed++
		case TestCaseSkipped:
			s.Skipped++
		}
	}
	if s.Total > 0 {
		s.SuccessRate = int(math.Round(float64(s.Passed) * 100 / float64(s.Total)))
	}
	return s
}

// TestRun 屏幕的一次测试运行
type TestRun struct {
	ID        string      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ScreenID  string      `json:"screen_id" gorm:"type:uuid;index;not null"`
	RunAt     time.Time   `json:"run_at" gorm:"index;not null"`
	Summary   TestSummary `json:"summary" gorm:"type:jsonb;serializer:json"`
	Cases     []TestCase  `json:"cases" gorm:"type:jsonb;serializer:json"`
	ErrorLogs []ErrorLog  `json:"error_logs,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time   `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (TestRun) TableName() string {
	return "test_runs"
}

// NewTestRun 创建测试运行，汇总总是由用例计算
func NewTestRun(screenID string, runAt time.Time, cases []TestCase, logs []ErrorLog) *TestRun {
	if runAt.IsZero() {
		runAt = time.Now()
	}
	return &TestRun{
		ScreenID:  screenID,
		RunAt:     runAt,
		Summary:   Summarize(cases),
		Cases:     cases,
		ErrorLogs: logs,
	}
}
