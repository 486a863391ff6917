package service

import (
	"context"
	"testing"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type CartServiceTestSuite struct {
	suite.Suite
	db          *gorm.DB
	dao         *db.DbDao
	cartRepo    *db.CartRepo
	productRepo *db.ProductRepo
	cartService *CartService
	user        *model.User
	otherUser   *model.User
}

// SetupSuite 在測試套件開始前執行
func (suite *CartServiceTestSuite) SetupSuite() {
	conn, err := db.GetDbConn("storefront", "localhost", "5432", "royce", "password")
	require.NoError(suite.T(), err)

	dao := db.NewDbDao(conn)
	require.NoError(suite.T(), dao.InitMigrate())

	suite.db = conn
	suite.dao = dao
	suite.cartRepo = db.NewCartRepo(dao)
	suite.productRepo = db.NewProductRepo(dao)
	suite.cartService = NewCartService(suite.cartRepo, suite.productRepo, NewStockService(5))
}

// SetupTest 在每個測試前執行
func (suite *CartServiceTestSuite) SetupTest() {
	// 清空資料表
	suite.db.Exec("DELETE FROM order_items")
	suite.db.Exec("DELETE FROM orders")
	suite.db.Exec("DELETE FROM cart_items")
	suite.db.Exec("DELETE FROM products")
	suite.db.Exec("DELETE FROM users")

	suite.user = suite.createUser("alice", "alice@example.com")
	suite.otherUser = suite.createUser("bob", "bob@example.com")
}

func (suite *CartServiceTestSuite) TearDownSuite() {
	sqlDB, _ := suite.db.DB()
	sqlDB.Close()
}

func (suite *CartServiceTestSuite) createUser(name, email string) *model.User {
	user := &model.User{UserName: name, UserEmail: email}
	require.NoError(suite.T(), suite.db.Create(user).Error)
	return user
}

func (suite *CartServiceTestSuite) createProduct(code, name string, price float64, stock uint) *model.Product {
	product := &model.Product{
		Code:  code,
		Name:  name,
		Price: decimal.NewFromFloat(price),
		Stock: stock,
	}
	require.NoError(suite.T(), suite.db.Create(product).Error)
	return product
}

func (suite *CartServiceTestSuite) TestAddNewItem() {
	product := suite.createProduct("P001", "Widget", 50.0, 10)

	item, err := suite.cartService.Add(context.Background(), suite.user, product, 2)

	require.NoError(suite.T(), err)
	require.Equal(suite.T(), suite.user.UserID, item.UserID)
	require.Equal(suite.T(), product.ProductID, item.ProductID)
	require.Equal(suite.T(), 2, item.Quantity)
	require.Equal(suite.T(), "Widget", item.Product.Name)
}

func (suite *CartServiceTestSuite) TestAddExistingItemMergesQuantity() {
	product := suite.createProduct("P001", "Widget", 50.0, 10)

	_, err := suite.cartService.Add(context.Background(), suite.user, product, 2)
	require.NoError(suite.T(), err)

	item, err := suite.cartService.Add(context.Background(), suite.user, product, 3)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 5, item.Quantity)

	// 不會長出第二列
	var count int64
	suite.db.Model(&model.CartItem{}).Where("user_id = ?", suite.user.UserID).Count(&count)
	require.Equal(suite.T(), int64(1), count)
}

func (suite *CartServiceTestSuite) TestAddInvalidQuantity() {
	product := suite.createProduct("P001", "Widget", 50.0, 10)

	_, err := suite.cartService.Add(context.Background(), suite.user, product, 0)
	require.Error(suite.T(), err)
	require.Contains(suite.T(), err.Error(), "Quantity must be at least 1")
}

func (suite *CartServiceTestSuite) TestAddInsufficientStock() {
	product := suite.createProduct("P001", "Sold Out", 50.0, 0)

	_, err := suite.cartService.Add(context.Background(), suite.user, product, 1)
	require.Error(suite.T(), err)
	require.ErrorIs(suite.T(), err, ErrInsufficientStock)
	require.Contains(suite.T(), err.Error(), "Insufficient stock")

	var count int64
	suite.db.Model(&model.CartItem{}).Count(&count)
	require.Equal(suite.T(), int64(0), count)
}

func (suite *CartServiceTestSuite) TestAddCombinedQuantityExceedsStock() {
	product := suite.createProduct("P001", "Widget", 50.0, 5)

	_, err := suite.cartService.Add(context.Background(), suite.user, product, 3)
	require.NoError(suite.T(), err)

	// 驗證用的是累加後的總量 3+3 > 5
	_, err = suite.cartService.Add(context.Background(), suite.user, product, 3)
	require.Error(suite.T(), err)
	require.ErrorIs(suite.T(), err, ErrInsufficientStock)

	item, err := suite.cartRepo.GetCartItemByUserAndProduct(context.Background(), suite.user.UserID, product.ProductID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 3, item.Quantity)
}

func (suite *CartServiceTestSuite) TestUpdateQuantity() {
	product := suite.createProduct("P001", "Widget", 50.0, 10)
	item, err := suite.cartService.Add(context.Background(), suite.user, product, 1)
	require.NoError(suite.T(), err)

	updated, err := suite.cartService.Update(context.Background(), suite.user, item, 4)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 4, updated.Quantity)
}

func (suite *CartServiceTestSuite) TestUpdateUnauthorized() {
	product := suite.createProduct("P001", "Widget", 50.0, 10)
	item, err := suite.cartService.Add(context.Background(), suite.user, product, 2)
	require.NoError(suite.T(), err)

	_, err = suite.cartService.Update(context.Background(), suite.otherUser, item, 5)
	require.Error(suite.T(), err)
	require.ErrorIs(suite.T(), err, ErrCartItemNotOwned)

	// 資料列不能被動到
	fresh, err := suite.cartRepo.GetCartItemByID(context.Background(), item.CartItemID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 2, fresh.Quantity)
}

func (suite *CartServiceTestSuite) TestUpdateInvalidQuantity() {
	product := suite.createProduct("P001", "Widget", 50.0, 10)
	item, err := suite.cartService.Add(context.Background(), suite.user, product, 2)
	require.NoError(suite.T(), err)

	for _, quantity := range []int{0, -5} {
		_, err = suite.cartService.Update(context.Background(), suite.user, item, quantity)
		require.Error(suite.T(), err)
		require.Contains(suite.T(), err.Error(), "Quantity must be at least 1")
	}
}

func (suite *CartServiceTestSuite) TestUpdateChecksLiveStock() {
	product := suite.createProduct("P001", "Widget", 50.0, 10)
	item, err := suite.cartService.Add(context.Background(), suite.user, product, 2)
	require.NoError(suite.T(), err)

	// 加入購物車之後庫存被別的結帳消耗掉
	suite.db.Model(&model.Product{}).Where("product_id = ?", product.ProductID).Update("stock", 1)

	_, err = suite.cartService.Update(context.Background(), suite.user, item, 3)
	require.Error(suite.T(), err)
	require.ErrorIs(suite.T(), err, ErrInsufficientStock)
}

func (suite *CartServiceTestSuite) TestRemove() {
	productA := suite.createProduct("P001", "Widget", 50.0, 10)
	productB := suite.createProduct("P002", "Gadget", 30.0, 5)
	itemA, err := suite.cartService.Add(context.Background(), suite.user, productA, 2)
	require.NoError(suite.T(), err)
	_, err = suite.cartService.Add(context.Background(), suite.user, productB, 1)
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.cartService.Remove(context.Background(), suite.user, itemA))

	// 兄弟明細與商品庫存都不受影響
	items, err := suite.cartService.GetCart(context.Background(), suite.user)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), items, 1)
	require.Equal(suite.T(), productB.ProductID, items[0].ProductID)

	stock, err := suite.productRepo.GetProductStock(context.Background(), productA.ProductID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), 10, stock)
}

func (suite *CartServiceTestSuite) TestRemoveUnauthorized() {
	product := suite.createProduct("P001", "Widget", 50.0, 10)
	item, err := suite.cartService.Add(context.Background(), suite.user, product, 2)
	require.NoError(suite.T(), err)

	err = suite.cartService.Remove(context.Background(), suite.otherUser, item)
	require.Error(suite.T(), err)
	require.ErrorIs(suite.T(), err, ErrCartItemNotOwned)
}

func (suite *CartServiceTestSuite) TestClear() {
	productA := suite.createProduct("P001", "Widget", 50.0, 10)
	productB := suite.createProduct("P002", "Gadget", 30.0, 5)
	_, err := suite.cartService.Add(context.Background(), suite.user, productA, 2)
	require.NoError(suite.T(), err)
	_, err = suite.cartService.Add(context.Background(), suite.user, productB, 1)
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.cartService.Clear(context.Background(), suite.user))

	items, err := suite.cartService.GetCart(context.Background(), suite.user)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), items)
}

func (suite *CartServiceTestSuite) TestGetCartTotal() {
	productA := suite.createProduct("P001", "Widget", 50.0, 10)
	productB := suite.createProduct("P002", "Gadget", 30.0, 5)
	_, err := suite.cartService.Add(context.Background(), suite.user, productA, 2)
	require.NoError(suite.T(), err)
	_, err = suite.cartService.Add(context.Background(), suite.user, productB, 1)
	require.NoError(suite.T(), err)

	total, err := suite.cartService.GetCartTotal(context.Background(), suite.user)
	require.NoError(suite.T(), err)
	require.True(suite.T(), decimal.NewFromFloat(130.0).Equal(total))
}

func (suite *CartServiceTestSuite) TestGetCartTotalEmptyCart() {
	total, err := suite.cartService.GetCartTotal(context.Background(), suite.user)
	require.NoError(suite.T(), err)
	require.True(suite.T(), decimal.NewFromInt(0).Equal(total))
}

func (suite *CartServiceTestSuite) TestGetCartTotalTracksCurrentPrice() {
	product := suite.createProduct("P001", "Widget", 50.0, 10)
	_, err := suite.cartService.Add(context.Background(), suite.user, product, 2)
	require.NoError(suite.T(), err)

	// 購物車金額永遠跟著現價走
	suite.db.Model(&model.Product{}).Where("product_id = ?", product.ProductID).Update("price", decimal.NewFromFloat(60.0))

	total, err := suite.cartService.GetCartTotal(context.Background(), suite.user)
	require.NoError(suite.T(), err)
	require.True(suite.T(), decimal.NewFromFloat(120.0).Equal(total))
}

// 執行測試套件
func TestCartServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CartServiceTestSuite))
}
