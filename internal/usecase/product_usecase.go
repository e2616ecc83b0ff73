package usecase

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// featured商品のキャッシュ。実体はRedis。
type FeaturedCache interface {
	Get(ctx context.Context) ([]model.Product, bool, error)
	Set(ctx context.Context, products []model.Product) error
	Invalidate(ctx context.Context) error
}

// 画像ホストへのベストエフォート操作。削除失敗は処理を止めない。
type MediaStore interface {
	Delete(ctx context.Context, imageRef string) error
}

type ProductUsecase struct {
	productRepo repo.ProductRepository
	cache       FeaturedCache
	media       MediaStore
	log         *slog.Logger
}

// DI
func NewProductUsecase(productRepo repo.ProductRepository, cache FeaturedCache, media MediaStore, log *slog.Logger) *ProductUsecase {
	return &ProductUsecase{
		productRepo: productRepo,
		cache:       cache,
		media:       media,
		log:         log,
	}
}

type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	Category string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) List(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	items, total, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        in.Q,
		Category: in.Category,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductListOutput{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

func (u *ProductUsecase) GetByID(ctx context.Context, id int64) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := u.productRepo.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

// featuredはキャッシュ優先。Redisが落ちていたらDBで返す（ログだけ残す）。
func (u *ProductUsecase) ListFeatured(ctx context.Context) ([]model.Product, error) {
	if cached, hit, err := u.cache.Get(ctx); err == nil && hit {
		return cached, nil
	} else if err != nil {
		u.log.Warn("featured cache read failed", "error", err)
	}

	items, err := u.productRepo.ListFeatured(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.cache.Set(ctx, items); err != nil {
		u.log.Warn("featured cache write failed", "error", err)
	}
	return items, nil
}

func (u *ProductUsecase) ListByCategory(ctx context.Context, category string) ([]model.Product, error) {
	if strings.TrimSpace(category) == "" {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid category")
	}
	items, err := u.productRepo.ListByCategory(ctx, category)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

// おすすめ＝ランダム4件
func (u *ProductUsecase) ListRecommended(ctx context.Context) ([]model.Product, error) {
	items, err := u.productRepo.ListRandom(ctx, 4)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       int64
	Image       string
	Category    string
	SellerID    *int64
}

func (u *ProductUsecase) Create(ctx context.Context, in CreateProductInput) (model.Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid name")
	}
	if in.Price < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid price")
	}
	if strings.TrimSpace(in.Category) == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid category")
	}

	p, err := u.productRepo.Create(ctx, model.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Image:       in.Image,
		Category:    in.Category,
		IsActive:    true,
		SellerID:    in.SellerID,
	})
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

// 削除。画像はベストエフォートで消す（失敗はログのみ）。
func (u *ProductUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	p, err := u.productRepo.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if p.Image != "" {
		if err := u.media.Delete(ctx, p.Image); err != nil {
			u.log.Warn("image delete failed", "product_id", id, "error", err)
		}
	}

	if err := u.productRepo.SoftDelete(ctx, id); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if p.IsFeatured {
		if err := u.cache.Invalidate(ctx); err != nil {
			u.log.Warn("featured cache invalidate failed", "error", err)
		}
	}
	return nil
}

// featuredフラグの切り替え。キャッシュを更新する。
func (u *ProductUsecase) ToggleFeatured(ctx context.Context, id int64) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	p, err := u.productRepo.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	p.IsFeatured = !p.IsFeatured
	if err := u.productRepo.Update(ctx, p); err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//キャッシュを作り直す
	if items, err := u.productRepo.ListFeatured(ctx); err == nil {
		if err := u.cache.Set(ctx, items); err != nil {
			u.log.Warn("featured cache refresh failed", "error", err)
		}
	}

	return p, nil
}

func (u *ProductUsecase) ListBySeller(ctx context.Context, sellerID int64) ([]model.Product, error) {
	if sellerID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	items, err := u.productRepo.ListBySellerID(ctx, sellerID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}
