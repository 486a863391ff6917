package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/event"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// capturePublisher 同步收下事件，供測試檢查
type capturePublisher struct {
	mu     sync.Mutex
	events []event.Event
	err    error
}

func (p *capturePublisher) Publish(ctx context.Context, evt event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *capturePublisher) published() []event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.Event(nil), p.events...)
}

type CheckoutServiceTestSuite struct {
	suite.Suite
	db              *gorm.DB
	dao             *db.DbDao
	cartRepo        *db.CartRepo
	orderRepo       *db.OrderRepo
	productRepo     *db.ProductRepo
	cartService     *CartService
	checkoutService *CheckoutService
	publisher       *capturePublisher
	user            *model.User
}

// SetupSuite 在測試套件開始前執行
func (suite *CheckoutServiceTestSuite) SetupSuite() {
	conn, err := db.GetDbConn("storefront", "localhost", "5432", "royce", "password")
	require.NoError(suite.T(), err)

	dao := db.NewDbDao(conn)
	require.NoError(suite.T(), dao.InitMigrate())

	suite.db = conn
	suite.dao = dao
	suite.cartRepo = db.NewCartRepo(dao)
	suite.orderRepo = db.NewOrderRepo(dao)
	suite.productRepo = db.NewProductRepo(dao)
}

// SetupTest 在每個測試前執行
func (suite *CheckoutServiceTestSuite) SetupTest() {
	// 清空資料表
	suite.db.Exec("DELETE FROM order_items")
	suite.db.Exec("DELETE FROM orders")
	suite.db.Exec("DELETE FROM cart_items")
	suite.db.Exec("DELETE FROM products")
	suite.db.Exec("DELETE FROM users")

	stockService := NewStockService(5)
	suite.cartService = NewCartService(suite.cartRepo, suite.productRepo, stockService)
	suite.publisher = &capturePublisher{}
	suite.checkoutService = NewCheckoutService(
		suite.dao, suite.cartService, stockService,
		suite.cartRepo, suite.orderRepo, suite.productRepo, suite.publisher,
	)

	user := &model.User{UserName: "alice", UserEmail: "alice@example.com"}
	require.NoError(suite.T(), suite.db.Create(user).Error)
	suite.user = user
}

func (suite *CheckoutServiceTestSuite) TearDownSuite() {
	sqlDB, _ := suite.db.DB()
	sqlDB.Close()
}

func (suite *CheckoutServiceTestSuite) createProduct(code, name string, price float64, stock uint) *model.Product {
	product := &model.Product{
		Code:  code,
		Name:  name,
		Price: decimal.NewFromFloat(price),
		Stock: stock,
	}
	require.NoError(suite.T(), suite.db.Create(product).Error)
	return product
}

func (suite *CheckoutServiceTestSuite) TestProcessEmptyCart() {
	_, err := suite.checkoutService.Process(context.Background(), suite.user)
	require.Error(suite.T(), err)
	require.ErrorIs(suite.T(), err, ErrCartEmpty)

	var count int64
	suite.db.Model(&model.Order{}).Count(&count)
	require.Equal(suite.T(), int64(0), count)
}

func (suite *CheckoutServiceTestSuite) TestProcessSuccess() {
	productA := suite.createProduct("P001", "Widget", 50.0, 10)
	productB := suite.createProduct("P002", "Gadget", 30.0, 5)
	_, err := suite.cartService.Add(context.Background(), suite.user, productA, 2)
	require.NoError(suite.T(), err)
	_, err = suite.cartService.Add(context.Background(), suite.user, productB, 1)
	require.NoError(suite.T(), err)

	order, err := suite.checkoutService.Process(context.Background(), suite.user)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.OrderStatusCompleted, order.Status)
	require.True(suite.T(), decimal.NewFromFloat(130.0).Equal(order.Amount))
	require.Len(suite.T(), order.OrderItems, 2)

	// 明細單價凍結在結帳當下
	prices := map[uint]decimal.Decimal{}
	for _, item := range order.OrderItems {
		prices[item.ProductID] = item.Price
	}
	require.True(suite.T(), decimal.NewFromFloat(50.0).Equal(prices[productA.ProductID]))
	require.True(suite.T(), decimal.NewFromFloat(30.0).Equal(prices[productB.ProductID]))

	// 庫存扣掉訂購量
	stockA, err := suite.productRepo.GetProductStock(context.Background(), productA.ProductID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 8, stockA)
	stockB, err := suite.productRepo.GetProductStock(context.Background(), productB.ProductID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 4, stockB)

	// 購物車清空
	items, err := suite.cartService.GetCart(context.Background(), suite.user)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), items)

	// 事件發布
	published := suite.publisher.published()
	require.Len(suite.T(), published, 1)
	require.Equal(suite.T(), event.OrderCompletedEventName, published[0].Type())
}

func (suite *CheckoutServiceTestSuite) TestProcessRollbackOnInsufficientStock() {
	productA := suite.createProduct("P001", "Widget", 50.0, 10)
	productB := suite.createProduct("P002", "Gadget", 30.0, 5)
	_, err := suite.cartService.Add(context.Background(), suite.user, productA, 2)
	require.NoError(suite.T(), err)
	_, err = suite.cartService.Add(context.Background(), suite.user, productB, 3)
	require.NoError(suite.T(), err)

	// 加入購物車之後庫存被別的結帳消耗掉
	suite.db.Model(&model.Product{}).Where("product_id = ?", productB.ProductID).Update("stock", 1)

	_, err = suite.checkoutService.Process(context.Background(), suite.user)
	require.Error(suite.T(), err)
	require.ErrorIs(suite.T(), err, ErrInsufficientStock)

	// 全部回捲: 沒有訂單、庫存不動、購物車保持原狀
	var orderCount int64
	suite.db.Model(&model.Order{}).Count(&orderCount)
	require.Equal(suite.T(), int64(0), orderCount)

	stockA, err := suite.productRepo.GetProductStock(context.Background(), productA.ProductID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 10, stockA)

	items, err := suite.cartService.GetCart(context.Background(), suite.user)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), items, 2)

	require.Empty(suite.T(), suite.publisher.published())
}

func (suite *CheckoutServiceTestSuite) TestProcessFreezesPriceBeforeLaterChange() {
	product := suite.createProduct("P001", "Widget", 50.0, 10)
	_, err := suite.cartService.Add(context.Background(), suite.user, product, 2)
	require.NoError(suite.T(), err)

	order, err := suite.checkoutService.Process(context.Background(), suite.user)
	require.NoError(suite.T(), err)

	// 結帳後改價不影響既有訂單
	suite.db.Model(&model.Product{}).Where("product_id = ?", product.ProductID).Update("price", decimal.NewFromFloat(99.0))

	fresh, err := suite.orderRepo.GetOrderByID(context.Background(), order.OrderID)
	require.NoError(suite.T(), err)
	require.True(suite.T(), decimal.NewFromFloat(100.0).Equal(fresh.Amount))
	require.True(suite.T(), decimal.NewFromFloat(50.0).Equal(fresh.OrderItems[0].Price))
}

func (suite *CheckoutServiceTestSuite) TestConcurrentCheckoutLastUnit() {
	product := suite.createProduct("P001", "Last One", 50.0, 1)

	other := &model.User{UserName: "bob", UserEmail: "bob@example.com"}
	require.NoError(suite.T(), suite.db.Create(other).Error)

	_, err := suite.cartService.Add(context.Background(), suite.user, product, 1)
	require.NoError(suite.T(), err)
	_, err = suite.cartService.Add(context.Background(), other, product, 1)
	require.NoError(suite.T(), err)

	var mu sync.Mutex
	var failures []error
	g := errgroup.Group{}
	for _, user := range []*model.User{suite.user, other} {
		user := user
		g.Go(func() error {
			_, err := suite.checkoutService.Process(context.Background(), user)
			if err != nil {
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
			}
			return nil
		})
	}
	require.NoError(suite.T(), g.Wait())

	// 恰好一個成功，一個因庫存不足失敗
	require.Len(suite.T(), failures, 1)
	require.ErrorIs(suite.T(), failures[0], ErrInsufficientStock)

	var orderCount int64
	suite.db.Model(&model.Order{}).Count(&orderCount)
	require.Equal(suite.T(), int64(1), orderCount)

	stock, err := suite.productRepo.GetProductStock(context.Background(), product.ProductID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 0, stock)
}

func (suite *CheckoutServiceTestSuite) TestGetLowStockProducts() {
	productA := suite.createProduct("P001", "Widget", 50.0, 10)
	productB := suite.createProduct("P002", "Gadget", 30.0, 6)
	_, err := suite.cartService.Add(context.Background(), suite.user, productA, 2)
	require.NoError(suite.T(), err)
	_, err = suite.cartService.Add(context.Background(), suite.user, productB, 3)
	require.NoError(suite.T(), err)

	order, err := suite.checkoutService.Process(context.Background(), suite.user)
	require.NoError(suite.T(), err)

	// 扣完剩 8 / 3，門檻 5，只有 Gadget 低水位
	lowStock, err := suite.checkoutService.GetLowStockProducts(context.Background(), order)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), lowStock, 1)
	require.Equal(suite.T(), productB.ProductID, lowStock[0].ProductID)
	require.Equal(suite.T(), uint(3), lowStock[0].Stock)
}

func (suite *CheckoutServiceTestSuite) TestProcessSucceedsWhenPublishFails() {
	product := suite.createProduct("P001", "Widget", 50.0, 10)
	_, err := suite.cartService.Add(context.Background(), suite.user, product, 1)
	require.NoError(suite.T(), err)

	suite.publisher.err = errors.New("broker unavailable")

	// 事件發布失敗不影響已commit的結帳
	order, err := suite.checkoutService.Process(context.Background(), suite.user)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.OrderStatusCompleted, order.Status)

	stock, err := suite.productRepo.GetProductStock(context.Background(), product.ProductID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 9, stock)
}

// 執行測試套件
func TestCheckoutServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CheckoutServiceTestSuite))
}
