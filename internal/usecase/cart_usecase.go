package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"app/internal/infra/cache"
	repo "app/internal/repository"
)

const cartCacheTTL = 60 * time.Second

// /cartの業務ロジック。読み取りはユーザーごとに短時間キャッシュする。
type CartUsecase struct {
	carts    repo.CartRepository
	products repo.ProductRepository
	store    cache.Store
}

func NewCartUsecase(carts repo.CartRepository, products repo.ProductRepository, store cache.Store) *CartUsecase {
	return &CartUsecase{carts: carts, products: products, store: store}
}

type CartLineResponse struct {
	ProductID           int64  `json:"product_id"`
	Name                string `json:"name"`
	Price               int64  `json:"price"`
	Quantity            int64  `json:"quantity"`
	SelectedForCheckout bool   `json:"selected_for_checkout"`
}

type CartResponse struct {
	Items []CartLineResponse `json:"items"`
	Total int64              `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

func cartCacheKey(userID int64) string {
	return fmt.Sprintf("cart:%d", userID)
}

func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//キャッシュヒットならDBに行かない
	if raw, err := u.store.Get(ctx, cartCacheKey(userID)); err == nil {
		var cached CartResponse
		if json.Unmarshal([]byte(raw), &cached) == nil {
			return cached, nil
		}
	}

	out, err := u.buildCartResponse(ctx, userID)
	if err != nil {
		return CartResponse{}, err
	}

	if raw, err := json.Marshal(out); err == nil {
		//書けなくても致命的ではない
		_ = u.store.Set(ctx, cartCacheKey(userID), string(raw), cartCacheTTL)
	}

	return out, nil
}

func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		in.Quantity = 1
	}

	p, err := u.products.FindByID(ctx, in.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}

	if err := u.carts.Upsert(ctx, userID, in.ProductID, in.Quantity); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.invalidate(ctx, userID)
	return u.buildCartResponse(ctx, userID)
}

// 数量を1減らす。1だった行は削除する（数量0の行は持たない）。
func (u *CartUsecase) DecrementCartItem(ctx context.Context, userID int64, productID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	line, err := u.carts.FindByUserAndProduct(ctx, userID, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "cart item not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if line.Quantity > 1 {
		err = u.carts.UpdateQuantity(ctx, userID, productID, line.Quantity-1)
	} else {
		err = u.carts.DeleteLine(ctx, userID, productID)
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.invalidate(ctx, userID)
	return u.buildCartResponse(ctx, userID)
}

func (u *CartUsecase) DeleteCartItem(ctx context.Context, userID int64, productID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	err := u.carts.DeleteLine(ctx, userID, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "cart item not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.invalidate(ctx, userID)
	return u.buildCartResponse(ctx, userID)
}

// チェックアウト対象のオン/オフ
func (u *CartUsecase) SelectForCheckout(ctx context.Context, userID int64, productID int64, selected bool) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	err := u.carts.SetSelected(ctx, userID, productID, selected)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "cart item not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.invalidate(ctx, userID)
	return u.buildCartResponse(ctx, userID)
}

func (u *CartUsecase) invalidate(ctx context.Context, userID int64) {
	_ = u.store.Delete(ctx, cartCacheKey(userID))
}

func (u *CartUsecase) buildCartResponse(ctx context.Context, userID int64) (CartResponse, error) {
	lines, err := u.carts.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if len(lines) == 0 {
		return CartResponse{Items: []CartLineResponse{}}, nil
	}

	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := u.products.ListByIDs(ctx, ids)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	byID := make(map[int64]struct {
		name  string
		price int64
	}, len(products))
	for _, p := range products {
		byID[p.ID] = struct {
			name  string
			price int64
		}{p.Name, p.Price}
	}

	out := CartResponse{Items: make([]CartLineResponse, 0, len(lines))}
	for _, l := range lines {
		info := byID[l.ProductID]
		out.Items = append(out.Items, CartLineResponse{
			ProductID:           l.ProductID,
			Name:                info.name,
			Price:               info.price,
			Quantity:            l.Quantity,
			SelectedForCheckout: l.SelectedForCheckout,
		})
		out.Total += info.price * l.Quantity
	}
	return out, nil
}
