package model

// BillOfMaterials 物料清单 — 对应 boms
// 主数据由 PLM 模块维护，本服务仅在下单时做组织内存在性校验
type BillOfMaterials struct {
	BOMID          string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"bom_id"`
	OrgID          string  `gorm:"type:uuid;not null;index"                       json:"org_id"`
	Code           string  `gorm:"type:varchar(64);not null"                      json:"code"`
	ProductName    string  `gorm:"type:varchar(128);not null"                     json:"product_name"`
	OutputQuantity float64 `gorm:"type:numeric(12,4);not null;default:1"          json:"output_quantity"`
	IsActive       bool    `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

func (BillOfMaterials) TableName() string { return "boms" }
