package service

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/shopspring/decimal"
)

// ProductSalesData 單一商品的當日銷售統計
type ProductSalesData struct {
	ProductID    uint            `json:"product_id"`
	ProductName  string          `json:"product_name"`
	QuantitySold int             `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// DailySalesData 當日銷售彙總
type DailySalesData struct {
	Items         []ProductSalesData `json:"items"`
	TotalRevenue  decimal.Decimal    `json:"total_revenue"`
	TotalQuantity int                `json:"total_quantity"`
	OrderCount    int                `json:"order_count"`
}

// SalesReportService 日銷售報表，唯讀，跟結帳路徑沒有互動
// 營收用訂單明細上凍結的價格算，不讀商品現價
type SalesReportService struct {
	dao       *db.DbDao
	orderRepo db.IOrderRepository
}

func NewSalesReportService(dao *db.DbDao, orderRepo db.IOrderRepository) *SalesReportService {
	return &SalesReportService{dao: dao, orderRepo: orderRepo}
}

// 取得指定日期(當地日界線)的銷售彙總
func (s *SalesReportService) GetDailySalesData(ctx context.Context, date time.Time) (*DailySalesData, error) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end := start.Add(24 * time.Hour)

	// 彙總直接下在SQL，不撈整批明細回來算
	var items []ProductSalesData
	err := s.dao.WithContext(ctx).Model(&model.OrderItem{}).
		Select("order_items.product_id, products.name AS product_name, SUM(order_items.quantity) AS quantity_sold, SUM(order_items.price * order_items.quantity) AS revenue").
		Joins("JOIN orders ON orders.order_id = order_items.order_id").
		Joins("JOIN products ON products.product_id = order_items.product_id").
		Where("orders.order_date >= ? AND orders.order_date < ?", start, end).
		Where("orders.status = ?", model.OrderStatusCompleted).
		Group("order_items.product_id, products.name").
		Order("revenue DESC").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}

	orderCount, err := s.orderRepo.GetCompletedOrderCount(ctx, start, end)
	if err != nil {
		return nil, err
	}

	data := &DailySalesData{
		Items:        items,
		TotalRevenue: decimal.NewFromInt(0),
		OrderCount:   int(orderCount),
	}
	for _, item := range items {
		data.TotalRevenue = data.TotalRevenue.Add(item.Revenue)
		data.TotalQuantity += item.QuantitySold
	}
	return data, nil
}
