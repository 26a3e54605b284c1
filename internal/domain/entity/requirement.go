package entity

import (
	"time"

	"screen-dev-assistant/internal/domain/codegen"
)

// Requirement 需求实体
type Requirement struct {
	ID              string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RequirementCode string    `json:"requirement_code" gorm:"type:varchar(64);uniqueIndex;not null"`
	Overview        string    `json:"overview" gorm:"type:varchar(500);not null"`
	Context         string    `json:"context,omitempty" gorm:"type:text"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Requirement) TableName() string {
	return "requirements"
}

// Summary 转换为需求摘要项
func (r *Requirement) Summary() codegen.Requirement {
	return codegen.Requirement{Overview: r.Overview, Context: r.Context}
}

// RequirementSummaries 保持顺序转换为需求摘要
func RequirementSummaries(reqs []*Requirement) []codegen.Requirement {
	out := make([]codegen.Requirement, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.Summary())
	}
	return out
}
