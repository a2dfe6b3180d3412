package repository

import (
	"context"

	"gorm.io/gorm"

	"prodline/backend/internal/model"
)

// BOMRepository 物料清单数据访问接口（只读，主数据由 PLM 模块维护）
type BOMRepository interface {
	GetByID(ctx context.Context, orgID, bomID string) (*model.BillOfMaterials, error)
	List(ctx context.Context, orgID string, activeOnly bool, offset, limit int) ([]model.BillOfMaterials, int64, error)
}

type bomRepo struct {
	db *gorm.DB
}

func NewBOMRepo(db *gorm.DB) BOMRepository {
	return &bomRepo{db: db}
}

func (r *bomRepo) GetByID(ctx context.Context, orgID, bomID string) (*model.BillOfMaterials, error) {
	var bom model.BillOfMaterials
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND bom_id = ?", orgID, bomID).
		First(&bom).Error
	if err != nil {
		return nil, err
	}
	return &bom, nil
}

func (r *bomRepo) List(ctx context.Context, orgID string, activeOnly bool, offset, limit int) ([]model.BillOfMaterials, int64, error) {
	var boms []model.BillOfMaterials
	var total int64

	db := r.db.WithContext(ctx).Model(&model.BillOfMaterials{}).
		Where("org_id = ?", orgID)
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(offset).Limit(limit).
		Order("code ASC").
		Find(&boms).Error
	return boms, total, err
}
