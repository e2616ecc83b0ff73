package usecase

import (
	"context"
	"net/http"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCart_GetCart_SkipsInactiveProducts(t *testing.T) {
	ctx := context.Background()
	cartRepo := new(CartItemRepoMock)
	productRepo := new(ProductRepoMock)
	uc := NewCartUsecase(cartRepo, productRepo)

	cartRepo.On("ListByUserID", mock.Anything, int64(7)).Return([]model.CartItem{
		{ID: 1, UserID: 7, ProductID: 10, Quantity: 2, UnitPriceSnapshot: 100},
		{ID: 2, UserID: 7, ProductID: 11, Quantity: 1, UnitPriceSnapshot: 50},
	}, nil)
	productRepo.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Name: "Mug", IsActive: true}, nil)
	productRepo.On("FindByID", mock.Anything, int64(11)).Return(model.Product{ID: 11, Name: "Gone", IsActive: false}, nil)

	out, err := uc.GetCart(ctx, 7)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out.Items))
	assert.Equal(t, int64(200), out.Total)
}

func TestCart_AddToCart_Success(t *testing.T) {
	ctx := context.Background()
	cartRepo := new(CartItemRepoMock)
	productRepo := new(ProductRepoMock)
	uc := NewCartUsecase(cartRepo, productRepo)

	productRepo.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Name: "Mug", Price: 100, IsActive: true}, nil)
	cartRepo.On("ListByUserID", mock.Anything, int64(7)).Return([]model.CartItem{}, nil).Once()
	cartRepo.On("UpsertByUserAndProduct", mock.Anything, int64(7), int64(10), int64(2), int64(100)).Return(nil)

	//Upsert後の再読込
	cartRepo.On("ListByUserID", mock.Anything, int64(7)).Return([]model.CartItem{
		{ID: 1, UserID: 7, ProductID: 10, Quantity: 2, UnitPriceSnapshot: 100},
	}, nil)

	out, err := uc.AddToCart(ctx, 7, AddCartInput{ProductID: 10, Quantity: 2})
	assert.NoError(t, err)
	assert.Equal(t, int64(200), out.Total)
	cartRepo.AssertExpectations(t)
}

func TestCart_AddToCart_QuantityBounds(t *testing.T) {
	ctx := context.Background()
	uc := NewCartUsecase(new(CartItemRepoMock), new(ProductRepoMock))

	for _, qty := range []int64{0, -3, 6} {
		_, err := uc.AddToCart(ctx, 7, AddCartInput{ProductID: 10, Quantity: qty})
		assertHTTPError(t, err, http.StatusBadRequest, "invalid quantity")
	}
}

func TestCart_AddToCart_ExceedsMaxWithExisting(t *testing.T) {
	ctx := context.Background()
	cartRepo := new(CartItemRepoMock)
	productRepo := new(ProductRepoMock)
	uc := NewCartUsecase(cartRepo, productRepo)

	productRepo.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Price: 100, IsActive: true}, nil)
	//すでに4個入っている
	cartRepo.On("ListByUserID", mock.Anything, int64(7)).Return([]model.CartItem{
		{ID: 1, UserID: 7, ProductID: 10, Quantity: 4, UnitPriceSnapshot: 100},
	}, nil)

	_, err := uc.AddToCart(ctx, 7, AddCartInput{ProductID: 10, Quantity: 2})
	assertHTTPError(t, err, http.StatusBadRequest, "invalid quantity")
	cartRepo.AssertNotCalled(t, "UpsertByUserAndProduct", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCart_AddToCart_ConcurrentAddHitsStoreLimit(t *testing.T) {
	ctx := context.Background()
	cartRepo := new(CartItemRepoMock)
	productRepo := new(ProductRepoMock)
	uc := NewCartUsecase(cartRepo, productRepo)

	productRepo.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, Price: 100, IsActive: true}, nil)
	//読込時点では余裕があるが、別リクエストが先に加算した
	cartRepo.On("ListByUserID", mock.Anything, int64(7)).Return([]model.CartItem{
		{ID: 1, UserID: 7, ProductID: 10, Quantity: 3, UnitPriceSnapshot: 100},
	}, nil)
	cartRepo.On("UpsertByUserAndProduct", mock.Anything, int64(7), int64(10), int64(2), int64(100)).
		Return(repo.ErrCartQuantityLimit)

	_, err := uc.AddToCart(ctx, 7, AddCartInput{ProductID: 10, Quantity: 2})
	assertHTTPError(t, err, http.StatusBadRequest, "invalid quantity")
}

func TestCart_AddToCart_InactiveProduct(t *testing.T) {
	ctx := context.Background()
	cartRepo := new(CartItemRepoMock)
	productRepo := new(ProductRepoMock)
	uc := NewCartUsecase(cartRepo, productRepo)

	productRepo.On("FindByID", mock.Anything, int64(10)).Return(model.Product{ID: 10, IsActive: false}, nil)

	_, err := uc.AddToCart(ctx, 7, AddCartInput{ProductID: 10, Quantity: 1})
	assertHTTPError(t, err, http.StatusBadRequest, "product not found")
}

func TestCart_AddToCart_ProductNotFound(t *testing.T) {
	ctx := context.Background()
	cartRepo := new(CartItemRepoMock)
	productRepo := new(ProductRepoMock)
	uc := NewCartUsecase(cartRepo, productRepo)

	productRepo.On("FindByID", mock.Anything, int64(99)).Return(model.Product{}, repo.ErrNotFound)

	_, err := uc.AddToCart(ctx, 7, AddCartInput{ProductID: 99, Quantity: 1})
	assertHTTPError(t, err, http.StatusBadRequest, "product not found")
}

func TestCart_UpdateCartItem_NotOwned(t *testing.T) {
	ctx := context.Background()
	cartRepo := new(CartItemRepoMock)
	uc := NewCartUsecase(cartRepo, new(ProductRepoMock))

	//他人の明細は404
	cartRepo.On("IsOwnedByUser", mock.Anything, int64(5), int64(7)).Return(false, nil)

	_, err := uc.UpdateCartItem(ctx, 7, 5, UpdateCartItemInput{Quantity: 3})
	assertHTTPError(t, err, http.StatusNotFound, "item not found")
	cartRepo.AssertNotCalled(t, "UpdateQuantity", mock.Anything, mock.Anything, mock.Anything)
}

func TestCart_DeleteCartItem_NotOwned(t *testing.T) {
	ctx := context.Background()
	cartRepo := new(CartItemRepoMock)
	uc := NewCartUsecase(cartRepo, new(ProductRepoMock))

	cartRepo.On("IsOwnedByUser", mock.Anything, int64(5), int64(7)).Return(false, nil)

	_, err := uc.DeleteCartItem(ctx, 7, 5)
	assertHTTPError(t, err, http.StatusNotFound, "item not found")
	cartRepo.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
}

func TestCart_ClearCart(t *testing.T) {
	ctx := context.Background()
	cartRepo := new(CartItemRepoMock)
	uc := NewCartUsecase(cartRepo, new(ProductRepoMock))

	cartRepo.On("DeleteByUserID", mock.Anything, int64(7)).Return(nil)

	out, err := uc.ClearCart(ctx, 7)
	assert.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.Equal(t, int64(0), out.Total)
}
