package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"shopify_split_v1_202610/internal/api/dto"
	"shopify_split_v1_202610/internal/model"
	"shopify_split_v1_202610/internal/repository"
)

// ErrInstanceNotFound 店铺不存在
var ErrInstanceNotFound = errors.New("店铺不存在")

// InstanceService 店铺连接管理
type InstanceService struct {
	repo   repository.InstanceRepository
	logger *zap.Logger
}

// NewInstanceService 创建店铺服务
func NewInstanceService(repo repository.InstanceRepository, logger *zap.Logger) *InstanceService {
	return &InstanceService{repo: repo, logger: logger.Named("instance")}
}

// Create 新建店铺连接，未指定槽位时颜色=1 尺码=2
func (s *InstanceService) Create(ctx context.Context, req dto.InstanceCreateReq) (*dto.InstanceResp, error) {
	inst := &model.StoreInstance{
		Name:                 req.Name,
		ShopifyHost:          req.ShopifyHost,
		ShopifyVersion:       req.ShopifyVersion,
		ShopifySharedSecret:  req.ShopifySharedSecret,
		Active:               req.Active,
		SplitProductsByColor: req.SplitProductsByColor,
		ColorOptionPosition:  req.ColorOptionPosition,
		SizeOptionPosition:   req.SizeOptionPosition,
	}
	if inst.ShopifyVersion == "" {
		inst.ShopifyVersion = "2024-01"
	}
	if inst.ColorOptionPosition == 0 {
		inst.ColorOptionPosition = 1
	}
	if inst.SizeOptionPosition == 0 {
		inst.SizeOptionPosition = 2
	}
	if err := inst.ValidateOptionPositions(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInstance, err)
	}

	if err := s.repo.Create(ctx, inst); err != nil {
		return nil, fmt.Errorf("创建店铺失败: %w", err)
	}
	s.logger.Info("店铺已创建", zap.Int64("instance_id", inst.ID), zap.String("host", inst.ShopifyHost))
	return toInstanceResp(inst), nil
}

// Update 修改店铺连接，槽位按修改后的完整配置校验
func (s *InstanceService) Update(ctx context.Context, id int64, req dto.InstanceUpdateReq) (*dto.InstanceResp, error) {
	inst, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		inst.Name = *req.Name
	}
	if req.ShopifyHost != nil {
		inst.ShopifyHost = *req.ShopifyHost
	}
	if req.ShopifyVersion != nil {
		inst.ShopifyVersion = *req.ShopifyVersion
	}
	if req.ShopifySharedSecret != nil {
		inst.ShopifySharedSecret = *req.ShopifySharedSecret
	}
	if req.Active != nil {
		inst.Active = *req.Active
	}
	if req.SplitProductsByColor != nil {
		inst.SplitProductsByColor = *req.SplitProductsByColor
	}
	if req.ColorOptionPosition != nil {
		inst.ColorOptionPosition = *req.ColorOptionPosition
	}
	if req.SizeOptionPosition != nil {
		inst.SizeOptionPosition = *req.SizeOptionPosition
	}
	if err := inst.ValidateOptionPositions(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInstance, err)
	}

	if err := s.repo.Update(ctx, inst); err != nil {
		return nil, fmt.Errorf("更新店铺失败: %w", err)
	}
	return toInstanceResp(inst), nil
}

// Get 店铺详情
func (s *InstanceService) Get(ctx context.Context, id int64) (*dto.InstanceResp, error) {
	inst, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toInstanceResp(inst), nil
}

// List 分页查询店铺
func (s *InstanceService) List(ctx context.Context, req dto.InstanceListReq) (*dto.InstanceListResp, error) {
	list, total, err := s.repo.List(ctx, repository.InstanceFilter{
		Name:     req.Name,
		Active:   req.Active,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.InstanceListResp{
		List:     make([]dto.InstanceResp, 0, len(list)),
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	for i := range list {
		resp.List = append(resp.List, *toInstanceResp(&list[i]))
	}
	return resp, nil
}

func (s *InstanceService) get(ctx context.Context, id int64) (*model.StoreInstance, error) {
	inst, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %d", ErrInstanceNotFound, id)
		}
		return nil, err
	}
	return inst, nil
}

func toInstanceResp(inst *model.StoreInstance) *dto.InstanceResp {
	return &dto.InstanceResp{
		ID:                   inst.ID,
		Name:                 inst.Name,
		ShopifyHost:          inst.ShopifyHost,
		ShopifyVersion:       inst.ShopifyVersion,
		HasAccessToken:       inst.ShopifySharedSecret != "",
		Active:               inst.Active,
		SplitProductsByColor: inst.SplitProductsByColor,
		ColorOptionPosition:  inst.ColorOptionPosition,
		SizeOptionPosition:   inst.SizeOptionPosition,
		LastExportProduct:    inst.LastExportProduct,
		LastExportCustomer:   inst.LastExportCustomer,
		LastCustomerImport:   inst.LastCustomerImport,
		LastOrderImport:      inst.LastOrderImport,
		CreatedAt:            inst.CreatedAt,
		UpdatedAt:            inst.UpdatedAt,
	}
}
