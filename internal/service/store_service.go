// FILE: internal/service/store_service.go
package service

import (
	"context"
	"errors"
	"time"

	"github.com/thetahealth/mirobody-sub003/internal/dto"
	"github.com/thetahealth/mirobody-sub003/internal/entity"
	"github.com/thetahealth/mirobody-sub003/internal/repository/specification"
	"github.com/thetahealth/mirobody-sub003/internal/repository/unitofwork"
	"github.com/thetahealth/mirobody-sub003/pkg/sanitize"

	"gorm.io/gorm"
)

// ErrKeyExists reports a creation-only put against an occupied key.
var ErrKeyExists = errors.New("key already exists")

type IStoreService interface {
	// Get returns (nil, nil) for an absent key. Missing data is not an error.
	Get(ctx context.Context, namespace entity.Namespace, key string) (*dto.StoreItem, error)
	// Put sanitizes the value and upserts the (namespace, key) row.
	Put(ctx context.Context, namespace entity.Namespace, key string, value map[string]interface{}) error
	// PutNew is the creation-only variant: ErrKeyExists when the key is taken.
	PutNew(ctx context.Context, namespace entity.Namespace, key string, value map[string]interface{}) error
	Delete(ctx context.Context, namespace entity.Namespace, key string) error
	// List returns the items of one namespace, optionally narrowed by key
	// prefix, ordered by key.
	List(ctx context.Context, namespace entity.Namespace, keyPrefix string) ([]*dto.StoreItem, error)
	// Search matches serialized namespaces by prefix, ordered by
	// (namespace, key) so results are deterministic.
	Search(ctx context.Context, namespacePrefix entity.Namespace) ([]*dto.StoreItem, error)
	ListNamespaces(ctx context.Context, prefix entity.Namespace, limit, offset int) ([][]string, error)
	// Batch applies heterogeneous operations in order. One result per
	// operation; a failing operation records its error and the batch moves on.
	Batch(ctx context.Context, ops []dto.StoreOperation) ([]dto.StoreOperationResult, error)
	Stats(ctx context.Context, sessionId, userId string) (*dto.WorkspaceStatsResponse, error)
	PurgeNamespace(ctx context.Context, namespace entity.Namespace) (int64, error)
}

type storeService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewStoreService(uowFactory unitofwork.RepositoryFactory) IStoreService {
	return &storeService{
		uowFactory: uowFactory,
	}
}

func (c *storeService) Get(ctx context.Context, namespace entity.Namespace, key string) (*dto.StoreItem, error) {
	if err := namespace.Validate(); err != nil {
		return nil, err
	}
	uow := c.uowFactory.NewUnitOfWork(ctx)

	item, err := uow.WorkspaceItemRepository().FindOne(ctx,
		specification.ByNamespace{Namespace: namespace.String()},
		specification.ByKey{Key: key},
	)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	return toStoreItem(item), nil
}

func (c *storeService) Put(ctx context.Context, namespace entity.Namespace, key string, value map[string]interface{}) error {
	item, err := c.buildItem(namespace, key, value)
	if err != nil {
		return err
	}
	uow := c.uowFactory.NewUnitOfWork(ctx)
	return uow.WorkspaceItemRepository().Upsert(ctx, item)
}

func (c *storeService) PutNew(ctx context.Context, namespace entity.Namespace, key string, value map[string]interface{}) error {
	item, err := c.buildItem(namespace, key, value)
	if err != nil {
		return err
	}
	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.WorkspaceItemRepository().Create(ctx, item); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrKeyExists
		}
		return err
	}
	return nil
}

// buildItem sanitizes the value and extracts the session/user side columns
// from the namespace. Every write funnels through here so nothing unsanitized
// can reach the row.
func (c *storeService) buildItem(namespace entity.Namespace, key string, value map[string]interface{}) (*entity.WorkspaceItem, error) {
	if err := namespace.Validate(); err != nil {
		return nil, err
	}
	doc, _ := sanitize.Value(value).(map[string]interface{})
	if doc == nil {
		doc = map[string]interface{}{}
	}
	return &entity.WorkspaceItem{
		Namespace: namespace,
		Key:       key,
		Value:     doc,
		SessionId: namespace.SessionId(),
		UserId:    namespace.UserId(),
		CreatedAt: time.Now(),
	}, nil
}

func (c *storeService) Delete(ctx context.Context, namespace entity.Namespace, key string) error {
	if err := namespace.Validate(); err != nil {
		return err
	}
	uow := c.uowFactory.NewUnitOfWork(ctx)
	return uow.WorkspaceItemRepository().Delete(ctx, namespace.String(), key)
}

func (c *storeService) List(ctx context.Context, namespace entity.Namespace, keyPrefix string) ([]*dto.StoreItem, error) {
	if err := namespace.Validate(); err != nil {
		return nil, err
	}
	uow := c.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{
		specification.ByNamespace{Namespace: namespace.String()},
		specification.OrderBy{Field: "key", Desc: false},
	}
	if keyPrefix != "" {
		specs = append(specs, specification.ByKeyPrefix{Prefix: keyPrefix})
	}

	items, err := uow.WorkspaceItemRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.StoreItem, 0, len(items))
	for _, item := range items {
		result = append(result, toStoreItem(item))
	}
	return result, nil
}

func (c *storeService) Search(ctx context.Context, namespacePrefix entity.Namespace) ([]*dto.StoreItem, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	items, err := uow.WorkspaceItemRepository().FindAll(ctx,
		specification.ByNamespacePrefix{Prefix: namespacePrefix.String()},
		specification.OrderBy{Field: "namespace, key", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.StoreItem, 0, len(items))
	for _, item := range items {
		result = append(result, toStoreItem(item))
	}
	return result, nil
}

func (c *storeService) ListNamespaces(ctx context.Context, prefix entity.Namespace, limit, offset int) ([][]string, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	namespaces, err := uow.WorkspaceItemRepository().ListNamespaces(ctx, prefix.String(), limit, offset)
	if err != nil {
		return nil, err
	}

	result := make([][]string, 0, len(namespaces))
	for _, ns := range namespaces {
		result = append(result, []string(ns))
	}
	return result, nil
}

func (c *storeService) Batch(ctx context.Context, ops []dto.StoreOperation) ([]dto.StoreOperationResult, error) {
	results := make([]dto.StoreOperationResult, 0, len(ops))
	for _, op := range ops {
		res := dto.StoreOperationResult{Op: op.Op, Key: op.Key}
		ns := entity.Namespace(op.Namespace)

		switch op.Op {
		case dto.StoreOpGet:
			item, err := c.Get(ctx, ns, op.Key)
			if err != nil {
				res.Error = err.Error()
			} else if item != nil {
				res.Found = true
				res.Value = item.Value
			}
		case dto.StoreOpPut:
			if err := c.Put(ctx, ns, op.Key, op.Value); err != nil {
				res.Error = err.Error()
			}
		case dto.StoreOpDelete:
			if err := c.Delete(ctx, ns, op.Key); err != nil {
				res.Error = err.Error()
			}
		default:
			res.Error = "unknown operation: " + op.Op
		}

		results = append(results, res)
	}
	return results, nil
}

func (c *storeService) Stats(ctx context.Context, sessionId, userId string) (*dto.WorkspaceStatsResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	stats, err := uow.WorkspaceItemRepository().Stats(ctx, sessionId, userId)
	if err != nil {
		return nil, err
	}

	return &dto.WorkspaceStatsResponse{
		FileCount:   stats.FileCount,
		ParsedCount: stats.ParsedCount,
		TotalSize:   stats.TotalSize,
	}, nil
}

func (c *storeService) PurgeNamespace(ctx context.Context, namespace entity.Namespace) (int64, error) {
	if err := namespace.Validate(); err != nil {
		return 0, err
	}
	uow := c.uowFactory.NewUnitOfWork(ctx)
	return uow.WorkspaceItemRepository().DeleteByNamespace(ctx, namespace.String())
}

func toStoreItem(item *entity.WorkspaceItem) *dto.StoreItem {
	return &dto.StoreItem{
		Namespace: []string(item.Namespace),
		Key:       item.Key,
		Value:     item.Value,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}
