package usecase

import (
	"context"
	"fmt"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/rs/zerolog"
)

// staged orderを耐久行へ変換する唯一の口。
// ポーリングパスとwebhookの両方から呼ばれるため、payment referenceを
// キーにしたcheck-then-actで二重登録を防ぐ。先に走った方が実体化し、
// 後から来た方はno-opになる。
type OrderMaterializer struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	carts      repo.CartRepository
	log        zerolog.Logger
}

func NewOrderMaterializer(
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	carts repo.CartRepository,
	log zerolog.Logger,
) *OrderMaterializer {
	return &OrderMaterializer{
		orders:     orders,
		orderItems: orderItems,
		carts:      carts,
		log:        log,
	}
}

// Materializeは成功した支払い1件につきOrder+OrderItemをちょうど一度だけ作り、
// チェックアウト済みのカート行を消す。既に同じreferenceの注文があれば
// その注文を返すだけで何もしない。
func (m *OrderMaterializer) Materialize(ctx context.Context, reference string, po model.PendingOrder) (model.Order, bool, error) {
	existing, found, err := m.orders.FindByReference(ctx, reference)
	if err != nil {
		return model.Order{}, false, fmt.Errorf("materialize: lookup reference: %w", err)
	}
	if found {
		return existing, true, nil
	}

	var itemCount int64
	for _, it := range po.Items {
		itemCount += it.Quantity
	}

	tracking := model.TrackingPending
	order := model.Order{
		UserID:              po.UserID,
		TotalPrice:          po.TotalPrice,
		NumberOfItemsBought: itemCount,
		DeliveryType:        po.DeliveryType,
		DeliveryStageID:     po.StageID,
		DeliveryLocation:    po.DeliveryLocation,
		StoreAddress:        po.StoreAddress,
		County:              po.County,
		DeliveryFee:         po.DeliveryFee,
		OrderStatus:         model.OrderStatusSuccess,
		TrackingStatus:      &tracking,
		PaymentReference:    reference,
	}

	orderID, err := m.orders.Create(ctx, order)
	if err != nil {
		//同時にwebhookが同じreferenceを入れた可能性。もう一度引く。
		if ex, found2, err2 := m.orders.FindByReference(ctx, reference); err2 == nil && found2 {
			return ex, true, nil
		}
		return model.Order{}, false, fmt.Errorf("materialize: create order: %w", err)
	}
	order.ID = orderID

	items := make([]model.OrderItem, 0, len(po.Items))
	for _, it := range po.Items {
		items = append(items, model.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	if err := m.orderItems.CreateBulk(ctx, orderID, items); err != nil {
		//明細を書けなかった注文は残さない（補償削除）
		if dErr := m.orders.Delete(ctx, orderID); dErr != nil {
			m.log.Error().Err(dErr).Int64("order_id", orderID).Msg("compensating order delete failed")
		}
		return model.Order{}, false, fmt.Errorf("materialize: create order items: %w", err)
	}

	if err := m.carts.DeleteSelectedByUserID(ctx, po.UserID); err != nil {
		//カートが残っても注文は成立している。ログだけ残す。
		m.log.Error().Err(err).Int64("user_id", po.UserID).Msg("cart cleanup failed after order")
	}

	m.log.Info().
		Int64("order_id", orderID).
		Int64("user_id", po.UserID).
		Str("reference", reference).
		Int64("total_price", po.TotalPrice).
		Msg("order materialized")

	return order, false, nil
}
