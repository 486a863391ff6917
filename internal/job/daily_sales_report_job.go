package job

import (
	"context"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/rs/zerolog/log"
)

// DailySalesReportJob 彙總前一天的銷售並寄給管理員
// 唯讀，跟結帳路徑完全沒有互動
type DailySalesReportJob struct {
	reportService *service.SalesReportService
	mailService   service.IMailService
	adminEmail    string
}

func NewDailySalesReportJob(reportService *service.SalesReportService, mailService service.IMailService, adminEmail string) *DailySalesReportJob {
	return &DailySalesReportJob{
		reportService: reportService,
		mailService:   mailService,
		adminEmail:    adminEmail,
	}
}

func (j *DailySalesReportJob) Run(ctx context.Context, date time.Time) error {
	data, err := j.reportService.GetDailySalesData(ctx, date)
	if err != nil {
		return err
	}
	return j.mailService.SendDailySalesReport(ctx, j.adminEmail, date, data)
}

// Scheduler 每天固定時刻跑一次日報表
type Scheduler struct {
	job       *DailySalesReportJob
	hour      int
	closeOnce sync.Once
	closeChan chan struct{}
}

func NewScheduler(job *DailySalesReportJob, hour int) *Scheduler {
	return &Scheduler{
		job:       job,
		hour:      hour,
		closeChan: make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		for {
			now := time.Now()
			next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, now.Location())
			if !next.After(now) {
				next = next.Add(24 * time.Hour)
			}

			timer := time.NewTimer(time.Until(next))
			select {
			case <-s.closeChan:
				timer.Stop()
				return
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			// 報前一天的帳
			reportDate := next.Add(-24 * time.Hour)
			if err := s.job.Run(ctx, reportDate); err != nil {
				log.Error().Err(err).Time("report_date", reportDate).Msg("daily sales report failed")
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.closeOnce.Do(func() {
		close(s.closeChan)
	})
}
