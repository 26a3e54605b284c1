// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/lib/pq"

	"screen-dev-assistant/internal/domain/codegen"
)

// ScreenStatus 屏幕开发状态
type ScreenStatus string

const (
	ScreenStatusPending    ScreenStatus = "pending"
	ScreenStatusInProgress ScreenStatus = "in-progress"
	ScreenStatusCompleted  ScreenStatus = "completed"
)

// ScreenStatuses 全部状态，按看板展示顺序
var ScreenStatuses = []ScreenStatus{ScreenStatusPending, ScreenStatusInProgress, ScreenStatusCompleted}

// Valid 校验状态取值
func (s ScreenStatus) Valid() bool {
	for _, v := range ScreenStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// APIParam 推荐接口参数
type APIParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

// RecommendedAPI 屏幕推荐调用的后端接口
type RecommendedAPI struct {
	Name        string     `json:"name"`
	Endpoint    string     `json:"endpoint"`
	Method      string     `json:"method"`
	Description string     `json:"description,omitempty"`
	Params      []APIParam `json:"params,omitempty"`
	Response    string     `json:"response,omitempty"`
}

// Screen 屏幕（页面）实体
type Screen struct {
	ID                 string           `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ScreenCode         string           `json:"screen_code" gorm:"type:varchar(64);uniqueIndex;not null"`
	Name               string           `json:"name" gorm:"type:varchar(255);not null"`
	Description        string           `json:"description,omitempty" gorm:"type:text"`
	FigmaFileID        string           `json:"figma_file_id,omitempty" gorm:"type:varchar(128)"`
	FigmaNodeID        string           `json:"figma_node_id,omitempty" gorm:"type:varchar(64)"`
	Status             ScreenStatus     `json:"status" gorm:"type:varchar(32);index;default:'pending'"`
	Overview           string           `json:"overview,omitempty" gorm:"type:text"`
	AcceptanceCriteria pq.StringArray   `json:"acceptance_criteria,omitempty" gorm:"type:text[]"`
	RecommendedAPIs    []RecommendedAPI `json:"recommended_apis,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt          time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Screen) TableName() string {
	return "screens"
}

// NewScreen 创建新屏幕，默认状态为 pending
func NewScreen(code, name string) *Screen {
	return &Screen{
		ScreenCode: code,
		Name:       name,
		Status:     ScreenStatusPending,
	}
}

// DesignReference 返回设计稿引用
func (s *Screen) DesignReference() codegen.DesignReference {
	return codegen.DesignReference{FileID: s.FigmaFileID, NodeID: s.FigmaNodeID}
}

// SetDesign 设置设计稿引用
func (s *Screen) SetDesign(ref codegen.DesignReference) {
	s.FigmaFileID = ref.FileID
	s.FigmaNodeID = ref.NodeID
}

// DesignURL 返回设计稿链接，未关联时为空
func (s *Screen) DesignURL() string {
	return codegen.DesignURL(s.DesignReference())
}

// ScreenRequirement 屏幕与需求的有序关联
type ScreenRequirement struct {
	ScreenID      string    `json:"screen_id" gorm:"type:uuid;primaryKey"`
	RequirementID string    `json:"requirement_id" gorm:"type:uuid;primaryKey"`
	Position      int       `json:"position" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (ScreenRequirement) TableName() string {
	return "screen_requirements"
}
