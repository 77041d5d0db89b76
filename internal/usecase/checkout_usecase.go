package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"app/internal/domain/model"
	"app/internal/queue"
	repo "app/internal/repository"

	"github.com/rs/zerolog"
)

// orchestratorがworkerの結果を待つ上限
const checkoutWaitTimeout = 3 * time.Second

// チェックアウトの起点。カート検証→価格確定→配送料→ロック→
// 注文の一時保存→支払いジョブ投入→redirect URL返却、まで。
// 注文の永続化はここでは行わない（検証パスだけが行う）。
type CheckoutUsecase struct {
	carts      repo.CartRepository
	products   repo.ProductRepository
	stages     repo.PsvStageRepository
	users      repo.UserRepository
	guard      *IdempotencyGuard
	staging    *OrderStagingStore
	dispatcher PaymentDispatcher
	log        zerolog.Logger
}

func NewCheckoutUsecase(
	carts repo.CartRepository,
	products repo.ProductRepository,
	stages repo.PsvStageRepository,
	users repo.UserRepository,
	guard *IdempotencyGuard,
	staging *OrderStagingStore,
	dispatcher PaymentDispatcher,
	log zerolog.Logger,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		carts:      carts,
		products:   products,
		stages:     stages,
		users:      users,
		guard:      guard,
		staging:    staging,
		dispatcher: dispatcher,
		log:        log,
	}
}

type CheckoutInput struct {
	DeliveryType     string
	StageID          *int64
	County           string
	StoreAddress     string
	DeliveryLocation string
	//Outside Nairobiのみ呼び出し側が指定できる（省略は0）
	DeliveryFee int64
}

type CheckoutOutput struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	OrderDataKey string `json:"order_id"`
	TotalPrice   int64  `json:"total_price"`
	DeliveryFee  int64  `json:"delivery_fee"`
	URL          string `json:"url"`
	ReferenceID  string `json:"reference_id"`
}

// 配送タイプごとの必須フィールドを先に検証する。
// ここで弾ければキャッシュにもキューにも触らない。
func validateDelivery(in CheckoutInput) (model.DeliveryType, error) {
	dt := model.DeliveryType(in.DeliveryType)
	switch dt {
	case model.DeliveryPSV:
		if in.StageID == nil || *in.StageID <= 0 {
			return "", NewHTTPError(http.StatusBadRequest, "stageId is required for PSV delivery")
		}
	case model.DeliveryOutsideNairobi:
		if in.County == "" {
			return "", NewHTTPError(http.StatusBadRequest, "county is required for Outside Nairobi delivery")
		}
	case model.DeliveryExpress:
		if in.StoreAddress == "" {
			return "", NewHTTPError(http.StatusBadRequest, "storeAddress is required for Express Delivery")
		}
	case model.DeliverySelfPickup:
		//追加フィールドなし
	default:
		return "", NewHTTPError(http.StatusBadRequest, "invalid delivery type")
	}
	if in.DeliveryFee < 0 {
		return "", NewHTTPError(http.StatusBadRequest, "invalid delivery fee")
	}
	return dt, nil
}

func (u *CheckoutUsecase) Checkout(ctx context.Context, userID int64, in CheckoutInput) (CheckoutOutput, error) {
	if userID <= 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	dt, err := validateDelivery(in)
	if err != nil {
		return CheckoutOutput{}, err
	}

	//チェックアウト対象のカート行
	lines, err := u.carts.ListSelectedByUserID(ctx, userID)
	if err != nil {
		return CheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if len(lines) == 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "cart is empty")
	}

	//現在価格を解決して合計を出す
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := u.products.ListByIDs(ctx, ids)
	if err != nil {
		return CheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	priceByID := make(map[int64]int64, len(products))
	for _, p := range products {
		priceByID[p.ID] = p.Price
	}

	var totalPrice int64
	items := make([]model.PendingOrderItem, 0, len(lines))
	for _, l := range lines {
		price, ok := priceByID[l.ProductID]
		if !ok {
			return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "cart references unknown product")
		}
		totalPrice += price * l.Quantity
		items = append(items, model.PendingOrderItem{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: price,
		})
	}

	//配送料ポリシー
	deliveryFee := int64(0)
	stageName := ""
	switch dt {
	case model.DeliveryPSV:
		stage, err := u.stages.FindByID(ctx, *in.StageID)
		if errors.Is(err, repo.ErrNotFound) {
			return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "invalid PSV stage")
		}
		if err != nil {
			return CheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		deliveryFee = stage.DeliveryFee
		stageName = stage.Name
	case model.DeliveryOutsideNairobi:
		deliveryFee = in.DeliveryFee
	}
	totalPrice += deliveryFee

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return CheckoutOutput{}, NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err != nil {
		return CheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//同一(user, amount, cart)の同時初期化を1件に絞る。
	//ロックを置けない場合は進まない（二重課金の方が高くつく）。
	fingerprint := OrderFingerprint(userID, totalPrice, lines)
	acquired, err := u.guard.Acquire(ctx, fingerprint)
	if err != nil {
		u.log.Error().Err(err).Int64("user_id", userID).Msg("idempotency lock unavailable")
		return CheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "payment processing error")
	}
	if !acquired {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "duplicate payment detected! transaction already processed")
	}

	//確定前の注文を一時保存
	pending := model.PendingOrder{
		UserID:           userID,
		Items:            items,
		DeliveryType:     dt,
		TotalPrice:       totalPrice,
		DeliveryFee:      deliveryFee,
		StageID:          in.StageID,
		StageName:        stageName,
		County:           in.County,
		StoreAddress:     in.StoreAddress,
		DeliveryLocation: in.DeliveryLocation,
		IdempotencyKey:   fingerprint,
	}
	orderDataKey, err := u.staging.Save(ctx, pending)
	if err != nil {
		_ = u.guard.Release(ctx, fingerprint)
		u.log.Error().Err(err).Int64("user_id", userID).Msg("staging save failed")
		return CheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "payment processing error")
	}

	//支払いジョブを優先投入してworkerの結果を待つ
	result, err := u.dispatcher.Dispatch(ctx, queue.PaymentJobPayload{
		UserID:         userID,
		Email:          user.Email,
		Amount:         totalPrice,
		IdempotencyKey: fingerprint,
		OrderDataKey:   orderDataKey,
	}, checkoutWaitTimeout)
	if errors.Is(err, ErrDispatchTimeout) {
		//ジョブは走り続けるかもしれないが、ユーザーにはリトライさせる
		_ = u.guard.Release(ctx, fingerprint)
		return CheckoutOutput{}, NewHTTPError(http.StatusGatewayTimeout, "payment processing timed out, please retry")
	}
	if err != nil {
		_ = u.guard.Release(ctx, fingerprint)
		u.log.Error().Err(err).Int64("user_id", userID).Msg("payment initialization failed")
		return CheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "payment processing error")
	}

	u.log.Info().
		Int64("user_id", userID).
		Int64("total_price", totalPrice).
		Str("reference", result.Reference).
		Str("order_data_key", orderDataKey).
		Msg("checkout initialized")

	return CheckoutOutput{
		Status:       "success",
		Message:      "Order placed successfully",
		OrderDataKey: orderDataKey,
		TotalPrice:   totalPrice,
		DeliveryFee:  deliveryFee,
		URL:          result.AuthorizationURL,
		ReferenceID:  result.Reference,
	}, nil
}
